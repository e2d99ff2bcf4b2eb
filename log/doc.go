// Package log wraps [log/slog] with a small value-typed [Logger].
//
// A Logger is built once from functional options and never mutated; use
// [Logger.Wrap] to derive a reconfigured copy and [Logger.With] to attach
// attributes. The zero Logger discards every message, which lets library
// code accept a Logger option without requiring callers to supply one.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("kitchen"),
//		log.WithPretty(true))
//
//	logger.Debug("parsed template", slog.Int("items", 12))
//
// Besides the [log/slog] levels there is [LevelTrace], used for
// per-node detail that is too noisy for debugging sessions.
//
// Package-level functions such as [Info] log through a process-wide
// logger that [Config] and [SetDefault] replace.
package log
