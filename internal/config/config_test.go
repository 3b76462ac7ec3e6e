package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "DEBUG"

server:
  address: "0.0.0.0:7878"
  shutdown_timeout: 15s

security:
  auth:
    backend: token
    signing_key_file: "` + yamlSafePath(tmpDir) + `/signing.key"

folders:
  - name: shared
    path: "` + yamlSafePath(tmpDir) + `/shared"
    permissions: [read]
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected shutdown_timeout 15s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MaxFrameSize == 0 {
		t.Error("expected default max_frame_size to be applied")
	}
	if len(cfg.Folders) != 1 || cfg.Folders[0].Name != "shared" {
		t.Fatalf("expected one folder named 'shared', got %+v", cfg.Folders)
	}
	if cfg.Folders[0].ShellType != "bash" {
		t.Errorf("expected default shell_type 'bash', got %q", cfg.Folders[0].ShellType)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistent := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistent)
	if err != nil {
		t.Fatalf("expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config to be returned")
	}
	if len(cfg.Folders) == 0 {
		t.Fatal("expected default config to expose at least one folder")
	}
}

func TestValidate_RejectsRelativeFolderPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Security.Auth.SigningKeyFile = "/tmp/key"
	cfg.Folders[0].Path = "relative/path"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for relative folder path")
	}
}

func TestValidate_RejectsDuplicateFolderNames(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Security.Auth.SigningKeyFile = "/tmp/key"
	cfg.Folders = append(cfg.Folders, cfg.Folders[0])

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for duplicate folder names")
	}
}

func TestValidate_RejectsReadOnlyWithWrite(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Security.Auth.SigningKeyFile = "/tmp/key"
	cfg.Folders[0].ReadOnly = true
	cfg.Folders[0].Permissions = []string{"read", "write"}

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for readonly folder granting write")
	}
}

func TestValidate_RequiresSigningKeyForTokenBackend(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Security.Auth.Backend = "token"
	cfg.Security.Auth.SigningKeyFile = ""

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for missing signing_key_file")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.yaml")

	cfg := GetDefaultConfig()
	cfg.Security.Auth.SigningKeyFile = "/tmp/key"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after SaveConfig failed: %v", err)
	}
	if loaded.Server.Address != cfg.Server.Address {
		t.Errorf("round-tripped address = %q, want %q", loaded.Server.Address, cfg.Server.Address)
	}
}
