// Package arcade embeds the static site so the server binary is
// self-contained.
package arcade

import "embed"

//go:embed web
var WebFS embed.FS
