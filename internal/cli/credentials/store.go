// Package credentials stores fshctl's server/token pairs on disk. fshd's
// admin API authenticates with a single static bearer token
// (internal/adminapi's bearerTokenAuth) rather than an issued JWT pair, so
// Context carries just a server URL and a token.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultConfigDir is the directory fshctl stores its config under.
	DefaultConfigDir = "fshctl"
	// ConfigFileName is the name of the config file within DefaultConfigDir.
	ConfigFileName = "config.json"
	// FilePermissions restricts the config file to the owner, since it may
	// hold a bearer token.
	FilePermissions = 0600
	// DirPermissions restricts the config directory to the owner.
	DirPermissions = 0700
)

var (
	// ErrNoCurrentContext indicates no context is currently selected.
	ErrNoCurrentContext = errors.New("no current context set")
	// ErrContextNotFound indicates the requested context doesn't exist.
	ErrContextNotFound = errors.New("context not found")
)

// Context is one named server/token pair.
type Context struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token,omitempty"`
}

// Config is fshctl's on-disk configuration.
type Config struct {
	CurrentContext string              `json:"current_context"`
	Contexts       map[string]*Context `json:"contexts"`
}

// Store manages the on-disk configuration.
type Store struct {
	configPath string
	config     *Config
}

// NewStore loads the config file, creating an empty one in memory if it
// does not yet exist on disk.
func NewStore() (*Store, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	store := &Store{configPath: configPath}
	if err := store.load(); err != nil {
		if os.IsNotExist(err) {
			store.config = &Config{Contexts: make(map[string]*Context)}
		} else {
			return nil, err
		}
	}
	return store, nil
}

func getConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, DefaultConfigDir, ConfigFileName), nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	s.config = &Config{}
	return json.Unmarshal(data, s.config)
}

func (s *Store) save() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configPath, data, FilePermissions)
}

// GetCurrentContext returns the selected context.
func (s *Store) GetCurrentContext() (*Context, error) {
	if s.config.CurrentContext == "" {
		return nil, ErrNoCurrentContext
	}
	ctx, ok := s.config.Contexts[s.config.CurrentContext]
	if !ok {
		return nil, ErrContextNotFound
	}
	return ctx, nil
}

// SetContext creates or replaces a named context and saves it to disk.
func (s *Store) SetContext(name string, ctx *Context) error {
	if s.config.Contexts == nil {
		s.config.Contexts = make(map[string]*Context)
	}
	s.config.Contexts[name] = ctx
	s.config.CurrentContext = name
	return s.save()
}

// ClearCurrentContext removes the stored token from the current context,
// leaving the server URL in place (logout).
func (s *Store) ClearCurrentContext() error {
	ctx, err := s.GetCurrentContext()
	if err != nil {
		return err
	}
	ctx.Token = ""
	return s.save()
}

// ConfigPath returns the on-disk path of the config file.
func (s *Store) ConfigPath() string {
	return s.configPath
}
