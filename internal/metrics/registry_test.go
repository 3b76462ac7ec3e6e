package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryDisabledByDefault(t *testing.T) {
	mu.Lock()
	registry = nil
	mu.Unlock()

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
	assert.Nil(t, Handler())
}

func TestInitRegistryEnables(t *testing.T) {
	reg := InitRegistry()
	defer func() {
		mu.Lock()
		registry = nil
		mu.Unlock()
	}()

	assert.NotNil(t, reg)
	assert.True(t, IsEnabled())
	assert.Same(t, reg, GetRegistry())
	assert.NotNil(t, Handler())
}
