package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the SQL migrations for the auth tables so host
// applications can run them with their own migration tooling.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
