package store

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/AlseFum/Texus/lang"
)

// Memory is a Store backed by maps. It is safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	templates map[string]lang.Template
	artifacts map[string]*lang.Artifact
	revision  uint64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		templates: make(map[string]lang.Template),
		artifacts: make(map[string]*lang.Artifact),
	}
}

// PutTemplate stores text under key with a new stamp and returns the stamp.
// Every call produces a distinct stamp, even when text is unchanged.
func (m *Memory) PutTemplate(key, text string) lang.Stamp {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.revision++
	stamp := lang.Stamp("r" + strconv.FormatUint(m.revision, 10))

	m.templates[key] = lang.Template{Text: text, Stamp: stamp}

	return stamp
}

// Delete removes key and its artifact.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.templates, key)
	delete(m.artifacts, key)
}

// Keys returns the stored template keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.templates))
}

// Template implements Store.
func (m *Memory) Template(_ context.Context, key string) (lang.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[key]
	if !ok {
		return lang.Template{}, ErrNotFound.With(slog.String("key", key))
	}

	return tmpl, nil
}

// Artifact implements Store.
func (m *Memory) Artifact(_ context.Context, key string) (*lang.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.artifacts[key], nil
}

// PutArtifact implements Store.
func (m *Memory) PutArtifact(
	_ context.Context,
	key string,
	artifact *lang.Artifact,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.artifacts[key] = artifact

	return nil
}
