package database

import (
	"embed"
	"io/fs"
	"path"
)

//go:embed migrations
var migrations embed.FS

// MigrationsFS returns the migrations compiled into the binary. Each dialect
// keeps its scripts in its own subdirectory.
func MigrationsFS() fs.FS {
	return migrations
}

// MigrationsDir returns the directory inside MigrationsFS for a dialect.
func MigrationsDir(d Dialect) string {
	return path.Join("migrations", string(d))
}
