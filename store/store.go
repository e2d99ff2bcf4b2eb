// Package store provides the template stores a generation engine reads
// from: an in-memory store and a directory tree searched along a path list.
//
// Stores own two tables. The template table maps a key to source text and a
// stamp identifying its revision. The artifact table holds parsed templates
// keyed the same way; a store does not interpret artifacts, it only keeps the
// most recent one written for each key.
package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/AlseFum/Texus/lang"
)

// Predefined errors (sentinel values).
var (
	ErrNotFound   = lang.NewError("template not found")
	ErrInvalidKey = lang.NewError("invalid template key")
	ErrReadFile   = lang.NewError("failed to read template file")
)

// Store is the boundary between the engine and wherever templates live.
type Store interface {
	// Template returns the current source for key, or an error matching
	// ErrNotFound when there is none.
	Template(ctx context.Context, key string) (lang.Template, error)

	// Artifact returns the artifact last stored for key, or nil when none
	// has been stored.
	Artifact(ctx context.Context, key string) (*lang.Artifact, error)

	// PutArtifact replaces the artifact stored for key.
	PutArtifact(ctx context.Context, key string, artifact *lang.Artifact) error
}

// CleanKey normalizes key to slash-separated form and reports whether it
// names a location inside a store root.
func CleanKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}

	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(key)))
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", false
	}

	return clean, true
}
