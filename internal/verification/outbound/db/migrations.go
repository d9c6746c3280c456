package db

import "embed"

// Migrations holds the schema of the email_verifications table.
//
//go:embed migrations/*.sql
var Migrations embed.FS
