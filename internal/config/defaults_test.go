package config

import "testing"

func TestApplyFolderDefaults_PopulatesCommandLists(t *testing.T) {
	folders := []FolderConfig{{Name: "shared", Path: "/srv/fsh/shared"}}

	applyFolderDefaults(folders)

	f := folders[0]
	if len(f.AllowedCommands) == 0 {
		t.Error("expected default AllowedCommands to be populated")
	}
	if len(f.BlockedSubstrings) == 0 {
		t.Error("expected default BlockedSubstrings to be populated")
	}
	if len(f.SystemAwareCommands) == 0 {
		t.Error("expected default SystemAwareCommands to be populated")
	}
}

func TestApplyFolderDefaults_PreservesExplicitCommandLists(t *testing.T) {
	folders := []FolderConfig{{
		Name:              "custom",
		Path:              "/srv/fsh/custom",
		AllowedCommands:   []string{"*"},
		BlockedSubstrings: []string{"rm"},
	}}

	applyFolderDefaults(folders)

	f := folders[0]
	if len(f.AllowedCommands) != 1 || f.AllowedCommands[0] != "*" {
		t.Errorf("expected explicit AllowedCommands to be preserved, got %v", f.AllowedCommands)
	}
	if len(f.BlockedSubstrings) != 1 || f.BlockedSubstrings[0] != "rm" {
		t.Errorf("expected explicit BlockedSubstrings to be preserved, got %v", f.BlockedSubstrings)
	}
}

func TestNewFolderConfig_DefaultsAndBuilders(t *testing.T) {
	f := NewFolderConfig("project", "/srv/fsh/project")

	if len(f.AllowedCommands) == 0 || len(f.BlockedSubstrings) == 0 || len(f.SystemAwareCommands) == 0 {
		t.Error("expected NewFolderConfig to populate default command lists")
	}

	f = f.WithReadOnly(true)
	for _, p := range f.Permissions {
		if p == "write" {
			t.Error("expected WithReadOnly to strip write permission")
		}
	}

	f = f.WithAllowedCommands([]string{"git"})
	if len(f.AllowedCommands) != 1 || f.AllowedCommands[0] != "git" {
		t.Errorf("expected WithAllowedCommands to replace the list, got %v", f.AllowedCommands)
	}
}
