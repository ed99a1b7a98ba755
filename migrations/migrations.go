// Package migrations embeds the schema. The SQL is written to run unchanged on
// PostgreSQL and SQLite: money columns are BIGINT hundredths and ids are text.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
