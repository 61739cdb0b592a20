// Package appfs embeds the files the binaries need at runtime: SQL migrations, email & site templates and static assets.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
