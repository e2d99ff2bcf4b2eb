// Package profile provides optional runtime profiling for texus.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	texus --pprof-mode cpu gen story.gen --count 10000
//
// Profiles are written by [github.com/pkg/profile] to the configured
// directory, by default $XDG_CACHE_HOME/texus/pprof, and can be inspected
// with "go tool pprof". Without the tag, [Modes] is empty and
// [Profiler.Start] returns a no-op.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
