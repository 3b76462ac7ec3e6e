package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims FSH issues and validates for the "token" auth
// backend). Unlike the
// teacher's control-plane Claims, which carry an abstract user identity,
// FSH's claims carry the capability set directly: the token IS the
// credential, not a pointer to a user record.
type Claims struct {
	jwt.RegisteredClaims

	// Capabilities is the subset of read/write/execute this token grants.
	// The session's effective permission for an operation is this set
	// intersected with the bound folder's own permission bits (supplemented
	// feature, grounded on the original's AuthManager capability-set design).
	Capabilities []string `json:"capabilities"`

	// Folders lists the folder names this token names; AllowsFolder checks a
	// name against it, with an empty list allowing any folder. Authenticate
	// does not pass the list on, so a session's folder bind does not check it.
	Folders []string `json:"folders,omitempty"`

	// Description is a human-readable label carried in the token.
	Description string `json:"description,omitempty"`
}

// HasCapability reports whether the claim set grants perm.
func (c *Claims) HasCapability(perm string) bool {
	return slices.Contains(c.Capabilities, perm)
}

// AllowsFolder reports whether the claim set permits binding to folder.
func (c *Claims) AllowsFolder(folder string) bool {
	return len(c.Folders) == 0 || slices.Contains(c.Folders, folder)
}
