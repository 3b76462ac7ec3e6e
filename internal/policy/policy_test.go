package policy

import (
	"testing"

	"github.com/NTD-LAB/FSH/internal/config"
)

func TestCheckDangerousCaseInsensitive(t *testing.T) {
	if !CheckDangerous("RM -RF /") {
		t.Error("expected dangerous pattern to match case-insensitively")
	}
	if CheckDangerous("ls -la") {
		t.Error("did not expect ordinary command to match dangerous patterns")
	}
}

func TestEvaluateBlockedSubstringDenies(t *testing.T) {
	folder := &config.FolderConfig{BlockedSubstrings: []string{"curl"}, AllowedCommands: []string{"*"}}

	d := Evaluate(folder, "curl https://example.com")
	if d.Allowed {
		t.Error("expected blocked substring to deny")
	}
}

func TestEvaluateWildcardAllowsAll(t *testing.T) {
	folder := &config.FolderConfig{AllowedCommands: []string{"*"}}

	if d := Evaluate(folder, "anything"); !d.Allowed {
		t.Error("expected wildcard allowlist to allow everything")
	}
}

func TestEvaluateEmptyAllowlistAllowsAll(t *testing.T) {
	folder := &config.FolderConfig{}

	d := Evaluate(folder, "anything goes")
	if !d.Allowed {
		t.Error("expected empty allowlist to allow everything")
	}
}

func TestEvaluateAllowlistPrefixMatch(t *testing.T) {
	folder := &config.FolderConfig{AllowedCommands: []string{"git"}}

	cases := map[string]bool{
		"git status":       true,
		"./git status":     true,
		"tools/git status": true,
		"lsgit":            false,
	}
	for cmd, want := range cases {
		d := Evaluate(folder, cmd)
		if d.Allowed != want {
			t.Errorf("Evaluate(%q) allowed=%v, want %v", cmd, d.Allowed, want)
		}
	}
}

func TestEvaluateSystemAwareAllowsRegardlessOfAllowlist(t *testing.T) {
	folder := &config.FolderConfig{AllowedCommands: []string{"git"}, SystemAwareCommands: []string{"npm"}}

	d := Evaluate(folder, "npm install")
	if !d.Allowed || !d.SystemAware {
		t.Errorf("expected system-aware command to be allowed regardless of allowlist, got %+v", d)
	}
}

func TestEvaluateSystemAwareCommandScopedPerCommand(t *testing.T) {
	folder := &config.FolderConfig{AllowedCommands: []string{"git"}, SystemAwareCommands: []string{"npm"}}

	d := Evaluate(folder, "rm -rf build")
	if d.Allowed {
		t.Errorf("expected non-system-aware, non-allowlisted command to still be denied, got %+v", d)
	}
}

func TestEvaluateDangerousOverridesAllowlist(t *testing.T) {
	folder := &config.FolderConfig{AllowedCommands: []string{"*"}}

	d := Evaluate(folder, "rm -rf /")
	if d.Allowed || !d.Dangerous {
		t.Errorf("expected dangerous command to be denied regardless of allowlist, got %+v", d)
	}
}

func TestPolicyMonotonicity(t *testing.T) {
	// Adding a command to blocked_commands never makes a previously-denied
	// command allowed.
	base := &config.FolderConfig{AllowedCommands: []string{"git"}}
	withBlock := &config.FolderConfig{AllowedCommands: []string{"git"}, BlockedSubstrings: []string{"rm"}}

	cmd := "unrelated-tool run"
	before := Evaluate(base, cmd)
	after := Evaluate(withBlock, cmd)

	if before.Allowed {
		t.Fatalf("expected baseline command to be denied to make this test meaningful")
	}
	if after.Allowed {
		t.Error("adding a blocked substring must never flip a denied command to allowed")
	}
}

func TestHasPermissionReadonlyStripsWrite(t *testing.T) {
	folder := &config.FolderConfig{Permissions: []string{"read", "write"}, ReadOnly: true}

	if HasPermission(folder, PermWrite) {
		t.Error("readonly folder must not grant write permission")
	}
	if !HasPermission(folder, PermRead) {
		t.Error("expected read permission to remain granted")
	}
}

func TestIsSuspiciousPathMatchesLiterals(t *testing.T) {
	if !IsSuspiciousPath("/etc/passwd") {
		t.Error("expected /etc/passwd to be flagged")
	}
	if !IsSuspiciousPath("/home/user/folder/etc/shadow") {
		t.Error("expected a path containing /etc/shadow to be flagged")
	}
}

func TestIsSuspiciousPathMatchesGlobSubtrees(t *testing.T) {
	if !IsSuspiciousPath("/proc/1/environ") {
		t.Error("expected /proc/** to be flagged")
	}
	if !IsSuspiciousPath("/sys/class/net/eth0") {
		t.Error("expected /sys/** to be flagged")
	}
}

func TestIsSuspiciousPathAllowsOrdinaryPaths(t *testing.T) {
	if IsSuspiciousPath("/srv/data/reports/q1.csv") {
		t.Error("did not expect an ordinary data path to be flagged")
	}
}
