package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlseFum/Texus/lang"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestDir_Template(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	writeFile(t, filepath.Join(first, "story.gen"), "main\n    first\n")
	writeFile(t, filepath.Join(second, "story.gen"), "main\n    second\n")
	writeFile(t, filepath.Join(second, "nested", "deep.gen"), "main\n    deep\n")
	writeFile(t, filepath.Join(second, "plain"), "main\n    plain\n")

	d := NewDir([]string{first, second})

	tests := []struct {
		key  string
		want string
	}{
		{"story", "main\n    first\n"},
		{"story.gen", "main\n    first\n"},
		{"nested/deep", "main\n    deep\n"},
		{"plain", "main\n    plain\n"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			tmpl, err := d.Template(t.Context(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Text)
			assert.NotEmpty(t, tmpl.Stamp)
		})
	}

	_, err := d.Template(t.Context(), "absent")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = d.Template(t.Context(), "../story")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestDir_StampTracksModification(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "story.gen")

	writeFile(t, path, "main\n    one\n")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	d := NewDir([]string{root})

	before, err := d.Template(t.Context(), "story")
	require.NoError(t, err)

	again, err := d.Template(t.Context(), "story")
	require.NoError(t, err)
	assert.Equal(t, before.Stamp, again.Stamp, "unchanged file must keep its stamp")

	writeFile(t, path, "main\n    two\n")

	after, err := d.Template(t.Context(), "story")
	require.NoError(t, err)
	assert.NotEqual(t, before.Stamp, after.Stamp)
	assert.Equal(t, "main\n    two\n", after.Text)
}

func TestDir_Keys(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	writeFile(t, filepath.Join(first, "a.gen"), "")
	writeFile(t, filepath.Join(second, "a.gen"), "")
	writeFile(t, filepath.Join(second, "sub", "b.gen"), "")
	writeFile(t, filepath.Join(second, "notes.txt"), "")

	d := NewDir([]string{first, second, filepath.Join(first, "missing")})

	keys, err := d.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "sub/b"}, keys)
}

func TestDir_Artifacts(t *testing.T) {
	d := NewDir(nil)

	got, err := d.Artifact(t.Context(), "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	artifact := &lang.Artifact{SourceStamp: "s"}
	require.NoError(t, d.PutArtifact(t.Context(), "k", artifact))

	got, err = d.Artifact(t.Context(), "k")
	require.NoError(t, err)
	assert.Same(t, artifact, got)
}

func TestSearchPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	missing := filepath.Join(a, "missing")

	sep := string(os.PathListSeparator)
	list := strings.Join([]string{b, missing, a}, sep)

	got := SearchPath(list, a)
	assert.Equal(t, []string{a, b}, got)

	assert.Empty(t, SearchPath("", missing))
}

func TestDefaultSearchPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PathEnv, dir)

	assert.Equal(t, []string{dir}, DefaultSearchPath())
}
