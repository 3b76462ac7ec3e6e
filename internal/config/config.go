// Package config loads and validates fshd's configuration: server binding,
// folder definitions, security policy, logging, and telemetry.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (FSH_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/NTD-LAB/FSH/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root fshd configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Server controls TCP listener behavior.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Security controls authentication, rate limiting, and auditing.
	Security SecurityConfig `mapstructure:"security" yaml:"security"`

	// Metrics configures the Prometheus metrics HTTP endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// AdminAPI configures the control-plane HTTP API.
	AdminAPI AdminAPIConfig `mapstructure:"admin_api" yaml:"admin_api"`

	// Folders lists the folder roots exposed over FSH.
	Folders []FolderConfig `mapstructure:"folders" yaml:"folders"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls continuous profiling via Pyroscope.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// AdminAPIConfig configures the chi-based control-plane HTTP API.
type AdminAPIConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Address      string        `mapstructure:"address" yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// TokenFile holds the bearer token required to access the API, if set.
	TokenFile string `mapstructure:"token_file" yaml:"token_file,omitempty"`
}

// ServerConfig controls the TCP listener.
type ServerConfig struct {
	// Address is the host:port to bind, e.g. "0.0.0.0:7878".
	Address string `mapstructure:"address" validate:"required" yaml:"address"`

	// MaxConnections caps concurrent sessions; 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"omitempty,min=0" yaml:"max_connections"`

	// IdleTimeout is the read idle period: after one with no traffic the
	// session sends a Ping, and after a second in a row it closes.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// MaxFrameSize caps a single protocol frame's payload.
	MaxFrameSize bytesize.ByteSize `mapstructure:"max_frame_size" yaml:"max_frame_size"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// CommandTimeout bounds how long a single shell command may run before
	// the server cancels it.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

// SecurityConfig controls authentication, rate limiting, and auditing
//).
type SecurityConfig struct {
	// Auth selects the authentication backend: "token", "password", or "kerberos".
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// RateLimit configures the sliding-window connection rate limiter.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Audit configures the structured audit event sink.
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// MaxFailedAuthAttempts before an IP is blocked outright.
	MaxFailedAuthAttempts int `mapstructure:"max_failed_auth_attempts" yaml:"max_failed_auth_attempts"`

	// BlockDuration is how long a blocked IP stays blocked.
	BlockDuration time.Duration `mapstructure:"block_duration" yaml:"block_duration"`
}

// AuthConfig configures credential verification.
type AuthConfig struct {
	// Backend selects "token" (JWT), "password" (hashed), or "kerberos".
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=token password kerberos" yaml:"backend"`

	// SigningKeyFile is the path to the JWT signing key (token backend).
	SigningKeyFile string `mapstructure:"signing_key_file" yaml:"signing_key_file,omitempty"`

	// TokenTTL bounds how long an issued token capability set remains valid.
	TokenTTL time.Duration `mapstructure:"token_ttl" yaml:"token_ttl,omitempty"`

	// PasswordHashFile maps usernames to hex SHA-256 password hashes.
	PasswordHashFile string `mapstructure:"password_hash_file" yaml:"password_hash_file,omitempty"`

	// Kerberos configures Kerberos AP-REQ ticket authentication.
	Kerberos KerberosConfig `mapstructure:"kerberos" yaml:"kerberos,omitempty"`
}

// KerberosConfig configures optional Kerberos ticket authentication.
type KerberosConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	KeytabPath       string        `mapstructure:"keytab_path" yaml:"keytab_path,omitempty"`
	ServicePrincipal string        `mapstructure:"service_principal" yaml:"service_principal,omitempty"`
	Krb5Conf         string        `mapstructure:"krb5_conf" yaml:"krb5_conf,omitempty"`
	MaxClockSkew     time.Duration `mapstructure:"max_clock_skew" yaml:"max_clock_skew,omitempty"`
}

// RateLimitConfig configures the sliding-window rate limiter.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// WindowSize is the sliding window duration.
	WindowSize time.Duration `mapstructure:"window_size" yaml:"window_size"`

	// MaxRequests is the request budget within WindowSize before throttling.
	MaxRequests int `mapstructure:"max_requests" validate:"omitempty,min=1" yaml:"max_requests"`

	// DBPath is the embedded badger store backing the IP block list; the
	// limiter's window counters are kept in memory.
	DBPath string `mapstructure:"db_path" yaml:"db_path,omitempty"`
}

// AuditConfig configures the structured audit trail.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Backend selects "sqlite", "postgres", or "otlp".
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=sqlite postgres otlp" yaml:"backend"`

	// DSN is the backend connection string (file path for sqlite).
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`

	// Archive configures optional S3 archival of aged audit events.
	Archive AuditArchiveConfig `mapstructure:"archive" yaml:"archive,omitempty"`
}

// AuditArchiveConfig configures S3 archival of aged audit events.
type AuditArchiveConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket     string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix     string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region     string `mapstructure:"region" yaml:"region,omitempty"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
}

// FolderConfig describes one exposed folder root.
type FolderConfig struct {
	// Name is the folder identifier clients bind to.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Path is the absolute filesystem root this folder confines sessions to.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// Permissions is the bitmask of allowed operation classes.
	Permissions []string `mapstructure:"permissions" validate:"required,dive,oneof=read write execute" yaml:"permissions"`

	// ReadOnly forces the write permission bit off regardless of Permissions.
	ReadOnly bool `mapstructure:"readonly" yaml:"readonly"`

	// ShellType selects the host shell used for external command dispatch
	//: powershell, cmd, bash, or gitbash.
	ShellType string `mapstructure:"shell_type" validate:"omitempty,oneof=powershell cmd bash gitbash" yaml:"shell_type"`

	// SystemAware relaxes environment scoping to trust the full host
	// environment for this folder's commands. It does not by itself
	// bypass the allowlist; SystemAwareCommands does that on a per-command
	// basis.
	SystemAware bool `mapstructure:"system_aware" yaml:"system_aware"`

	// SystemAwareCommands lists command substrings that bypass the
	// allowlist. The dangerous-pattern denylist and the blocklist are
	// checked first and still apply. Each entry is matched as a plain
	// substring anywhere in the command string.
	SystemAwareCommands []string `mapstructure:"system_aware_commands" yaml:"system_aware_commands,omitempty"`

	// AllowedCommands is the command allowlist; empty means policy-default.
	AllowedCommands []string `mapstructure:"allowed_commands" yaml:"allowed_commands,omitempty"`

	// BlockedSubstrings augments the built-in dangerous-pattern denylist.
	BlockedSubstrings []string `mapstructure:"blocked_substrings" yaml:"blocked_substrings,omitempty"`

	// MaxFileSize caps how large a file FileRead/FileWrite will transfer.
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`

	// Env lists extra environment variables exposed to commands in this folder.
	Env map[string]string `mapstructure:"env" yaml:"env,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error when the
// file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Initialize one first:\n"+
				"  fshd init\n\n"+
				"Or specify a custom config file:\n"+
				"  fshd start --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Create it with:\n"+
			"  fshd init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML, restricted to owner read/write
// since folders may carry credential-adjacent settings.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("FSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fsh")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "fsh")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
