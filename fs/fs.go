// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

//go:embed all:migrations all:templates
var FS embed.FS

// MigrationsDir returns the migrations directory for a database engine (postgres | sqlite3).
func MigrationsDir(engine string) string {
	return "migrations/" + engine
}
