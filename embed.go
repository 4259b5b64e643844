package journeylens

import "embed"

// MigrationsFS exposes the SQL migrations for golang-migrate's iofs source.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
