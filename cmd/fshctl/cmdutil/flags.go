// Package cmdutil holds fshctl's global flag state and the helpers its
// subcommand packages share.
package cmdutil

// GlobalFlags holds the persistent flags synced by the root command's
// PersistentPreRun, read by every subcommand package.
type GlobalFlags struct {
	Server  string
	Token   string
	Output  string
	NoColor bool
}

// Flags is the process-wide global flag state.
var Flags GlobalFlags

// EmptyOr returns fallback when s is empty, s otherwise.
func EmptyOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// BoolToYesNo renders b as "yes"/"no" for table output.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
