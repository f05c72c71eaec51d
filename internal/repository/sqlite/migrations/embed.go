package migrations

import "embed"

// FS holds the versioned schema files applied by Run.
//
//go:embed *.sql
var FS embed.FS
