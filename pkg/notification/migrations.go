package notification

import "embed"

// MigrationsFS contains the schema migrations for the PostgreSQL storage.
// Pass it to pg.Migrate at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
