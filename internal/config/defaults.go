package config

import (
	"strings"
	"time"

	"github.com/NTD-LAB/FSH/internal/bytesize"
)

// ApplyDefaults fills unspecified configuration fields with sensible
// defaults. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
	applySecurityDefaults(&cfg.Security)
	applyMetricsDefaults(&cfg.Metrics)
	applyAdminAPIDefaults(&cfg.AdminAPI)
	applyFolderDefaults(cfg.Folders)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Address == "" {
		cfg.Address = "0.0.0.0:7878"
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = 10 * bytesize.MiB
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = 5 * time.Minute
	}
}

func applySecurityDefaults(cfg *SecurityConfig) {
	if cfg.Auth.Backend == "" {
		cfg.Auth.Backend = "token"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.Kerberos.MaxClockSkew == 0 {
		cfg.Auth.Kerberos.MaxClockSkew = 5 * time.Minute
	}
	if cfg.Auth.Kerberos.Krb5Conf == "" {
		cfg.Auth.Kerberos.Krb5Conf = "/etc/krb5.conf"
	}

	if cfg.RateLimit.WindowSize == 0 {
		cfg.RateLimit.WindowSize = time.Minute
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 100
	}
	if cfg.RateLimit.DBPath == "" {
		cfg.RateLimit.DBPath = "/var/lib/fsh/ratelimit"
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "sqlite"
	}
	if cfg.Audit.DSN == "" {
		cfg.Audit.DSN = "/var/lib/fsh/audit.db"
	}
	if cfg.Audit.Archive.MaxRetries == 0 {
		cfg.Audit.Archive.MaxRetries = 3
	}
	if cfg.Audit.Archive.Prefix == "" {
		cfg.Audit.Archive.Prefix = "audit/"
	}

	if cfg.MaxFailedAuthAttempts == 0 {
		cfg.MaxFailedAuthAttempts = 5
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = time.Hour
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAdminAPIDefaults(cfg *AdminAPIConfig) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8181"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
}

func applyFolderDefaults(folders []FolderConfig) {
	for i := range folders {
		f := &folders[i]

		if f.ShellType == "" {
			f.ShellType = "bash"
		}
		if len(f.Permissions) == 0 {
			f.Permissions = []string{"read"}
		}
		if f.ReadOnly {
			f.Permissions = removePermission(f.Permissions, "write")
		}
		if f.MaxFileSize == 0 {
			f.MaxFileSize = 10 * bytesize.MiB
		}
		if f.Env == nil {
			f.Env = make(map[string]string)
		}
		if len(f.AllowedCommands) == 0 {
			f.AllowedCommands = defaultAllowedCommands()
		}
		if len(f.BlockedSubstrings) == 0 {
			f.BlockedSubstrings = defaultBlockedCommands()
		}
		if len(f.SystemAwareCommands) == 0 {
			f.SystemAwareCommands = defaultSystemAwareCommands()
		}
	}
}

func removePermission(perms []string, remove string) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if p != remove {
			out = append(out, p)
		}
	}
	return out
}

// defaultAllowedCommands is the built-in command allowlist applied to a
// folder that doesn't configure its own: everyday file operations and the
// common development toolchains.
func defaultAllowedCommands() []string {
	return []string{
		"ls", "dir", "cat", "type", "echo", "pwd", "cd",
		"mkdir", "rmdir", "cp", "copy", "mv", "move", "rm", "del",
		"find", "grep", "head", "tail", "wc", "sort", "uniq",

		"git", "npm", "yarn", "node", "python", "python3", "pip", "pip3",
		"cargo", "rustc", "go", "java", "javac", "mvn", "gradle",
		"make", "cmake",

		"code", "vim", "nano", "emacs",

		"curl", "wget", "tar", "zip", "unzip", "which", "whereis",
	}
}

// defaultBlockedCommands augments the built-in dangerous-pattern denylist
// with substrings a folder rejects even though CheckDangerous lets them
// through.
func defaultBlockedCommands() []string {
	return []string{
		"format", "fdisk", "dd", "mkfs",
		"shutdown", "reboot", "halt", "poweroff",

		"passwd", "su", "sudo", "runas", "chown", "chmod", "chgrp",

		"netstat", "ss", "nmap",

		"kill", "killall", "taskkill",

		"apt", "yum", "dnf", "pacman", "brew", "choco",
	}
}

// defaultSystemAwareCommands lists CLI tools that commonly need the full
// host environment (credentials, PATH, cloud config) to function.
func defaultSystemAwareCommands() []string {
	return []string{
		"claude", "code", "cursor",
		"npm", "yarn", "pnpm", "node", "python", "pip",
		"cargo", "rustc", "go",
		"docker", "git", "gh",
		"aws", "az", "gcloud",
	}
}

// GetDefaultConfig returns a Config with all default values applied,
// exposing a single read-only "shared" folder rooted at /srv/fsh/shared.
// Used when no config file is found and by `fshd init`.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Address: "0.0.0.0:7878",
		},
		Security: SecurityConfig{
			Auth: AuthConfig{
				Backend: "token",
			},
		},
		Folders: []FolderConfig{
			{
				Name:        "shared",
				Path:        "/srv/fsh/shared",
				Permissions: []string{"read", "execute"},
				ReadOnly:    true,
				ShellType:   "bash",
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
