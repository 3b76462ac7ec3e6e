// Package policy implements FSH's command admissibility rules: the
// dangerous-pattern denylist that runs before everything else, and the
// per-folder allow/block decision for a full command string.
package policy

import (
	"path/filepath"
	"strings"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/bmatcuk/doublestar/v4"
)

// Permission is one bit of a folder's effective permission set.
type Permission string

const (
	PermRead    Permission = "read"
	PermWrite   Permission = "write"
	PermExecute Permission = "execute"
)

// dangerousPatterns is the built-in denylist checked before folder policy,
// for operations that would be unrecoverable regardless of configuration
//.
var dangerousPatterns = []string{
	"rm -rf /",
	"del /f /q",
	"format",
	"fdisk",
	"dd if=",
	"mkfs",
	"shutdown",
	"reboot",
	"halt",
	"poweroff",
	"sudo su",
	"sudo -i",
	"passwd",
	"chpasswd",
	"../../../",
	`..\..\..\`,
}

// Decision is the outcome of evaluating a command against policy.
type Decision struct {
	Allowed      bool
	SystemAware  bool
	Dangerous    bool
	DeniedReason string
}

// deny builds a denied Decision with a reason.
func deny(reason string) Decision {
	return Decision{Allowed: false, DeniedReason: reason}
}

// CheckDangerous reports whether cmd matches the built-in dangerous-pattern
// denylist, independent of folder configuration. Callers must run this
// before Evaluate and treat a hit as both denied and suspicious-audited.
func CheckDangerous(cmd string) bool {
	lower := strings.ToLower(cmd)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Evaluate decides whether cmd is admissible for folder:
//  1. blocked_commands substring match -> deny
//  2. system_aware_commands substring match -> allow, system-aware
//  3. allowed_commands is "*" or empty -> allow
//  4. else allow iff some allowed entry prefixes cmd, or appears as "/entry"
//     or "\entry" within cmd
func Evaluate(folder *config.FolderConfig, cmd string) Decision {
	if CheckDangerous(cmd) {
		d := deny("matches dangerous command pattern")
		d.Dangerous = true
		return d
	}

	for _, blocked := range folder.BlockedSubstrings {
		if blocked != "" && strings.Contains(cmd, blocked) {
			return deny("command matches a blocked pattern")
		}
	}

	for _, aware := range systemAwareCommands(folder) {
		if aware != "" && strings.Contains(cmd, aware) {
			return Decision{Allowed: true, SystemAware: true}
		}
	}

	allowed := folder.AllowedCommands
	if len(allowed) == 0 || containsWildcard(allowed) {
		return Decision{Allowed: true}
	}

	for _, a := range allowed {
		if a == "" {
			continue
		}
		if strings.HasPrefix(cmd, a) || strings.Contains(cmd, "/"+a) || strings.Contains(cmd, `\`+a) {
			return Decision{Allowed: true}
		}
	}

	return deny("command is not in the folder's allowlist")
}

func containsWildcard(allowed []string) bool {
	for _, a := range allowed {
		if a == "*" {
			return true
		}
	}
	return false
}

// systemAwareCommands returns the folder's system_aware_commands set.
func systemAwareCommands(folder *config.FolderConfig) []string {
	return folder.SystemAwareCommands
}

// suspiciousLiterals is the built-in deny-list of exact host system files
// checked against a request's *canonical* path string, even when that path
// falls under a folder's root — a symlink could still point at one of these
//.
var suspiciousLiterals = []string{
	"/etc/passwd",
	"/etc/shadow",
	"/etc/sudoers",
	`\windows\system32\config\sam`,
	`\windows\system32\config\system`,
}

// suspiciousGlobs augments suspiciousLiterals with doublestar patterns
// matching entire sensitive subtrees, mirroring GetMandatoryDenyPatterns'
// "**/name" and "**/name/**" shape.
var suspiciousGlobs = []string{
	"proc/**",
	"sys/**",
	"dev/**",
}

// IsSuspiciousPath reports whether canonicalPath matches the built-in
// sensitive-host-file deny-list: either a literal match or a glob pattern
// over a sensitive subtree.
func IsSuspiciousPath(canonicalPath string) bool {
	lower := strings.ToLower(canonicalPath)
	for _, p := range suspiciousLiterals {
		if strings.Contains(lower, p) {
			return true
		}
	}

	trimmed := strings.TrimPrefix(filepath.ToSlash(lower), "/")
	for _, g := range suspiciousGlobs {
		if ok, _ := doublestar.Match(g, trimmed); ok {
			return true
		}
		if ok, _ := doublestar.Match("**/"+g, trimmed); ok {
			return true
		}
	}
	return false
}

// HasPermission reports whether folder's effective permission set
// (readonly always strips write) includes perm.
func HasPermission(folder *config.FolderConfig, perm Permission) bool {
	for _, p := range folder.Permissions {
		if Permission(p) == perm {
			if perm == PermWrite && folder.ReadOnly {
				return false
			}
			return true
		}
	}
	return false
}
