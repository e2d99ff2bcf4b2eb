package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlseFum/Texus/lang"
)

func TestMemory_Templates(t *testing.T) {
	m := NewMemory()

	_, err := m.Template(t.Context(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	first := m.PutTemplate("story", "main\n    once\n")
	second := m.PutTemplate("story", "main\n    once\n")
	assert.NotEqual(t, first, second, "re-putting a template must bump its stamp")

	tmpl, err := m.Template(t.Context(), "story")
	require.NoError(t, err)
	assert.Equal(t, "main\n    once\n", tmpl.Text)
	assert.Equal(t, second, tmpl.Stamp)

	m.PutTemplate("alpha", "")
	assert.Equal(t, []string{"alpha", "story"}, m.Keys())
}

func TestMemory_Artifacts(t *testing.T) {
	m := NewMemory()

	got, err := m.Artifact(t.Context(), "story")
	require.NoError(t, err)
	assert.Nil(t, got)

	artifact := &lang.Artifact{SourceStamp: "r1", ParsedAt: time.Now()}
	require.NoError(t, m.PutArtifact(t.Context(), "story", artifact))

	got, err = m.Artifact(t.Context(), "story")
	require.NoError(t, err)
	assert.Same(t, artifact, got)

	m.Delete("story")

	got, err = m.Artifact(t.Context(), "story")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup

	for range 8 {
		wg.Go(func() {
			for range 50 {
				stamp := m.PutTemplate("k", "main\n    x\n")
				_ = m.PutArtifact(t.Context(), "k", &lang.Artifact{SourceStamp: stamp})

				_, _ = m.Template(t.Context(), "k")
				_, _ = m.Artifact(t.Context(), "k")
			}
		})
	}

	wg.Wait()

	tmpl, err := m.Template(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, lang.Stamp("r400"), tmpl.Stamp)
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"story", "story", true},
		{" a/b/../c ", "a/c", true},
		{"./x", "x", true},
		{"", "", false},
		{"../escape", "", false},
		{"/abs/path", "", false},
		{"a/../..", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := CleanKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
