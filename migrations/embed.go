// Package migrations embeds the SQL migration sets.
//
// Public holds migrations for the shared public schema and runs once at startup.
// Tenant holds migrations replayed inside every tenant schema by the provisioner;
// its files must not qualify object names so they land in the schema being provisioned.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed public/*.sql tenant/*.sql
var files embed.FS

// Public returns the public-schema migration set.
func Public() fs.FS {
	return sub("public")
}

// Tenant returns the per-tenant migration set.
func Tenant() fs.FS {
	return sub("tenant")
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return f
}
