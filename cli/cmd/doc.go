// Package cmd implements the texus subcommands: gen, check, fmt, init and
// repl.
//
// A SOURCE argument names a template file, "-" for standard input, or a key
// resolved against the template search path (--path flags followed by
// $TEXUS_PATH).
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the JSON configuration file.
	ConfigIdentifier = "config"
)
