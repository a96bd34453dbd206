// Package web embeds the static frontend assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// Static returns the frontend file tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// The subtree is embedded at build time; failure here is a build
		// defect, not a runtime condition.
		panic(err)
	}
	return sub
}
