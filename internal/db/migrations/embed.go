// Package migrations provides embedded SQL migration files, applied
// in-process at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
