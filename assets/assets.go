// Package assets embeds the files shipped with the binaries: SQL migrations and e-mail templates.
package assets

import "embed"

var (
	//go:embed migrations/*.sql
	Migrations embed.FS

	//go:embed templates/email/*
	EmailTemplates embed.FS
)

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
)
