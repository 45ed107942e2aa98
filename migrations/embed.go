// Package migrations embeds the SQL schema applied by the server at startup
// and by bookingctl migrate.
package migrations

import "embed"

// FS holds every *.up.sql file in this directory.
//
//go:embed *.up.sql
var FS embed.FS
