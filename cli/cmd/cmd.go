package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/AlseFum/Texus/engine"
	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
	"github.com/AlseFum/Texus/store"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type searchPathKey struct{}

// WithSearchPath returns a new context.Context carrying the directories
// given with --path. They are searched before $TEXUS_PATH.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// stdout returns the writer commands print results to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// Source is a template opened through an engine, so that repeated loads
// reuse the parsed artifact until the template changes.
type Source struct {
	*engine.Engine

	// Key identifies the template in the engine's store.
	Key string

	// Name is the SOURCE argument the template was opened from.
	Name string

	memory *store.Memory
	dir    *store.Dir
}

// OpenSource resolves src as described in the package documentation.
// Standard input is read once and held in memory.
func OpenSource(ctx context.Context, src string) (*Source, error) {
	logger := log.Default()
	opts := []engine.Option{engine.WithLogger(logger)}

	if src == stdinSource {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, ErrOpenSource.Wrap(err).With(slog.String("source", src))
		}

		mem := store.NewMemory()
		mem.PutTemplate(src, string(data))

		return &Source{
			Engine: engine.New(mem, opts...),
			Key:    src,
			Name:   src,
			memory: mem,
		}, nil
	}

	if info, err := os.Stat(src); err == nil && info.Mode().IsRegular() {
		dir := store.NewDir(
			[]string{filepath.Dir(src)},
			store.WithLogger(logger),
		)

		return &Source{
			Engine: engine.New(dir, opts...),
			Key:    filepath.Base(src),
			Name:   src,
			dir:    dir,
		}, nil
	}

	dir := store.NewDir(
		store.DefaultSearchPath(searchPathFrom(ctx)...),
		store.WithLogger(logger),
	)

	logger.DebugContext(ctx, "resolve template key",
		slog.String("key", src),
		slog.Any("path", dir.Roots()))

	return &Source{
		Engine: engine.New(dir, opts...),
		Key:    src,
		Name:   src,
		dir:    dir,
	}, nil
}

// Load parses the template, reusing the cached artifact when it is current.
func (s *Source) Load(ctx context.Context) (*lang.AST, error) {
	ast, err := s.Engine.Load(ctx, s.Key)
	if err != nil {
		return nil, ErrOpenSource.Wrap(err).With(slog.String("source", s.Name))
	}

	return ast, nil
}

// Replace swaps the text of an in-memory template. It reports false for
// templates backed by files, which are edited in place instead.
func (s *Source) Replace(text string) bool {
	if s.memory == nil {
		return false
	}

	s.memory.PutTemplate(s.Key, text)

	return true
}

// Path returns the file backing the template, or "" for standard input.
func (s *Source) Path() string {
	if s.dir == nil {
		return ""
	}

	path, _, err := s.dir.Locate(s.Key)
	if err != nil {
		return ""
	}

	return path
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueSources drops sources that name a file already listed, comparing
// device and inode after resolving symlinks. Sources that are not files,
// such as store keys and "-", are compared by name.
func uniqueSources(sources []string) []string {
	seenFile := make(map[fileKey]struct{})
	seenName := make(map[string]struct{})

	unique := make([]string, 0, len(sources))

	for _, src := range sources {
		if key, ok := statFileKey(src); ok {
			if _, dup := seenFile[key]; dup {
				continue
			}

			seenFile[key] = struct{}{}
		} else {
			if _, dup := seenName[src]; dup {
				continue
			}

			seenName[src] = struct{}{}
		}

		unique = append(unique, src)
	}

	return unique
}

func statFileKey(path string) (fileKey, bool) {
	if path == stdinSource {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
