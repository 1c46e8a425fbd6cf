// Package migrations embeds the wpp.db schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
