// Package appfs embeds the files the binaries ship with.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* knowledge/*.yaml
var FS embed.FS
