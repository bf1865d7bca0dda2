// Package appfs embeds the templates, static files and SQL migrations shipped with the binary.
package appfs

import "embed"

//go:embed all:assets migrations
var FS embed.FS
