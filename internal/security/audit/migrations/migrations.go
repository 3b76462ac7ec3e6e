// Package migrations embeds the audit store's PostgreSQL schema for
// golang-migrate, using an iofs-embedded layout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
