package config

import (
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags via go-playground/validator and then applies
// cross-field invariants the tag language can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation: %w", err)
	}

	if len(cfg.Folders) == 0 {
		return fmt.Errorf("at least one folder must be configured")
	}

	seen := make(map[string]bool, len(cfg.Folders))
	for _, f := range cfg.Folders {
		if seen[f.Name] {
			return fmt.Errorf("duplicate folder name: %q", f.Name)
		}
		seen[f.Name] = true

		if !filepath.IsAbs(f.Path) {
			return fmt.Errorf("folder %q: path must be absolute, got %q", f.Name, f.Path)
		}

		if f.ReadOnly {
			for _, p := range f.Permissions {
				if p == "write" {
					return fmt.Errorf("folder %q: readonly folder cannot grant write permission", f.Name)
				}
			}
		}
	}

	switch cfg.Security.Auth.Backend {
	case "token":
		if cfg.Security.Auth.SigningKeyFile == "" {
			return fmt.Errorf("security.auth: signing_key_file is required for token backend")
		}
	case "password":
		if cfg.Security.Auth.PasswordHashFile == "" {
			return fmt.Errorf("security.auth: password_hash_file is required for password backend")
		}
	case "kerberos":
		if cfg.Security.Auth.Kerberos.KeytabPath == "" {
			return fmt.Errorf("security.auth.kerberos: keytab_path is required when backend is kerberos")
		}
	}

	if cfg.Security.Audit.Backend == "postgres" && cfg.Security.Audit.DSN == "" {
		return fmt.Errorf("security.audit: dsn is required for postgres backend")
	}

	if cfg.Security.Audit.Archive.Enabled && cfg.Security.Audit.Archive.Bucket == "" {
		return fmt.Errorf("security.audit.archive: bucket is required when archive is enabled")
	}

	return nil
}
