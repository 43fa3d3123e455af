// Package assets bundles the static files served by the demo server.
package assets

import "embed"

// FS holds the bundled files.
//
//go:embed sample.txt
var FS embed.FS
