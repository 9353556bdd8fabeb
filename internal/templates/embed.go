// Package templates holds the scaffolding files copied into projects.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var bundled embed.FS

// Bundled returns the embedded template tree rooted at its top directory.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
