// Package migrations embeds the audit store's SQL migrations into the binary
// so the gateway can bring its schema up to date without files on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory at the root of the filesystem.
//
//go:embed *.sql
var FS embed.FS
