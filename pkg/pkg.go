//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the texus module embedded at build
// time, without surrounding whitespace.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command identifier. It appears in help text and
	// names the configuration and cache directories.
	Name = "texus"
	// Description is a short summary used in help output.
	Description = "Randomized text generator for Gen templates"
)
