// Package ui embeds the HTML templates and static assets of the web front end.
package ui

import (
	"embed"
)

//go:embed templates static
var Files embed.FS
