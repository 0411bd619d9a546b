// Package routeguard provides embedded assets for production builds.
package routeguard

import "embed"

// TemplateFS holds the page templates.
// In dev mode (DEV=true) templates are re-read from disk on each render instead.
//
//go:embed templates/*.tmpl
var TemplateFS embed.FS
