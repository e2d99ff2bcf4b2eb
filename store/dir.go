package store

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"

	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
)

// Extension is the file extension of template files.
const Extension = ".gen"

// PathEnv names the environment variable holding the default search path.
const PathEnv = "TEXUS_PATH"

// Dir is a Store that reads templates from files under a list of root
// directories. The key "a/b" names the first of "a/b.gen" or "a/b" found
// under any root, in search path order. Artifacts are held in memory.
type Dir struct {
	roots  []string
	logger log.Logger

	mu        sync.RWMutex
	artifacts map[string]*lang.Artifact
}

// DirOption configures a Dir.
type DirOption func(*Dir)

// WithLogger sets the logger used for lookup tracing.
func WithLogger(logger log.Logger) DirOption {
	return func(d *Dir) { d.logger = logger }
}

// NewDir returns a store searching roots in order.
func NewDir(roots []string, opts ...DirOption) *Dir {
	d := &Dir{
		roots:     slices.Clone(roots),
		artifacts: make(map[string]*lang.Artifact),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Roots returns the search path of d.
func (d *Dir) Roots() []string { return slices.Clone(d.roots) }

// SearchPath composes a search path from dirs followed by the entries of
// list, a string in the format of $PATH. Duplicates are dropped, keeping the
// first occurrence, and entries that are not directories are skipped.
func SearchPath(list string, dirs ...string) []string {
	sep := string(os.PathListSeparator)

	joined := mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(sep),
		mung.WithPrefixItems(dirs...),
	).String()

	seen := make(map[string]struct{})

	var path []string

	for _, dir := range filepath.SplitList(joined) {
		if dir == "" {
			continue
		}

		dir = filepath.Clean(dir)
		if _, dup := seen[dir]; dup {
			continue
		}

		seen[dir] = struct{}{}

		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}

		path = append(path, dir)
	}

	return path
}

// DefaultSearchPath returns SearchPath of $TEXUS_PATH with dirs in front.
func DefaultSearchPath(dirs ...string) []string {
	return SearchPath(os.Getenv(PathEnv), dirs...)
}

// Locate returns the file that key resolves to.
func (d *Dir) Locate(key string) (string, fs.FileInfo, error) {
	clean, ok := CleanKey(key)
	if !ok {
		return "", nil, ErrInvalidKey.With(slog.String("key", key))
	}

	rel := filepath.FromSlash(clean)

	candidates := []string{rel + Extension, rel}
	if strings.HasSuffix(rel, Extension) {
		candidates = candidates[1:]
	}

	for _, root := range d.roots {
		for _, name := range candidates {
			path := filepath.Join(root, name)

			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}

			d.logger.Trace("template located",
				slog.String("key", clean),
				slog.String("path", path))

			return path, info, nil
		}
	}

	return "", nil, ErrNotFound.With(
		slog.String("key", key),
		slog.Int("roots", len(d.roots)))
}

// Keys returns the keys of every template file under the search path. A
// key shadowed by an earlier root is listed once.
func (d *Dir) Keys() ([]string, error) {
	seen := make(map[string]struct{})

	var keys []string

	for _, root := range d.roots {
		err := filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			key := filepath.ToSlash(strings.TrimSuffix(rel, Extension))
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}

			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return keys, err
		}
	}

	return keys, nil
}

// Template implements Store. The stamp combines the file's modification
// time and size.
func (d *Dir) Template(ctx context.Context, key string) (lang.Template, error) {
	path, info, err := d.Locate(key)
	if err != nil {
		return lang.Template{}, err
	}

	text, err := ReadFile(path)
	if err != nil {
		return lang.Template{}, err
	}

	d.logger.TraceContext(ctx, "template read",
		slog.String("key", key),
		slog.Int("bytes", len(text)))

	return lang.Template{Text: text, Stamp: FileStamp(info)}, nil
}

// FileStamp derives a stamp from a file's modification time and size.
func FileStamp(info fs.FileInfo) lang.Stamp {
	return lang.Stamp(strconv.FormatInt(info.ModTime().UnixNano(), 36) +
		"-" + strconv.FormatInt(info.Size(), 36))
}

// ReadFile reads the file at path through an asynchronous read-ahead buffer.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ErrReadFile.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadFile.Wrap(err).With(slog.String("path", path))
	}

	return string(data), nil
}

// Artifact implements Store.
func (d *Dir) Artifact(_ context.Context, key string) (*lang.Artifact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.artifacts[key], nil
}

// PutArtifact implements Store.
func (d *Dir) PutArtifact(
	_ context.Context,
	key string,
	artifact *lang.Artifact,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.artifacts[key] = artifact

	return nil
}
