package config

// NewFolderConfig constructs a FolderConfig rooted at path with sane
// defaults: read/write/execute permissions, the bash shell, and the
// built-in allow/block/system-aware command lists. Use the With* methods
// to override any of these before the config is loaded.
func NewFolderConfig(name, path string) FolderConfig {
	return FolderConfig{
		Name:                name,
		Path:                path,
		Permissions:         []string{"read", "write", "execute"},
		ShellType:           "bash",
		AllowedCommands:     defaultAllowedCommands(),
		BlockedSubstrings:   defaultBlockedCommands(),
		SystemAwareCommands: defaultSystemAwareCommands(),
		Env:                 make(map[string]string),
	}
}

// WithPermissions replaces the folder's permission set.
func (f FolderConfig) WithPermissions(permissions []string) FolderConfig {
	f.Permissions = permissions
	return f
}

// WithShellType replaces the folder's shell.
func (f FolderConfig) WithShellType(shellType string) FolderConfig {
	f.ShellType = shellType
	return f
}

// WithReadOnly sets readonly, stripping the write permission when true.
func (f FolderConfig) WithReadOnly(readOnly bool) FolderConfig {
	f.ReadOnly = readOnly
	if readOnly {
		f.Permissions = removePermission(f.Permissions, "write")
	}
	return f
}

// WithAllowedCommands replaces the folder's command allowlist.
func (f FolderConfig) WithAllowedCommands(commands []string) FolderConfig {
	f.AllowedCommands = commands
	return f
}

// WithBlockedCommands replaces the folder's blocked-substring list.
func (f FolderConfig) WithBlockedCommands(commands []string) FolderConfig {
	f.BlockedSubstrings = commands
	return f
}

// WithSystemAwareCommands replaces the folder's system-aware command list.
func (f FolderConfig) WithSystemAwareCommands(commands []string) FolderConfig {
	f.SystemAwareCommands = commands
	return f
}

// AddEnv sets a single environment variable exposed to this folder's
// commands.
func (f FolderConfig) AddEnv(key, value string) FolderConfig {
	if f.Env == nil {
		f.Env = make(map[string]string)
	}
	f.Env[key] = value
	return f
}
