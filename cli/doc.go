// Package cli contains the command line interface for texus.
//
// # Usage
//
//	texus [flags] [SOURCE]            generate from SOURCE (default "-")
//	texus gen [flags] SOURCE          same as above
//	texus check SOURCE...             report items, variables and undefined references
//	texus fmt [json|yaml] SOURCE      print a template in canonical form
//	texus init [PATH]                 write a starter template
//	texus repl [SOURCE]               start an interactive session
//
// SOURCE is a file path, "-" for standard input, or a key resolved against
// the template search path. The search path is made of the directories given
// with -P, then $TEXUS_PATH, then the working directory.
//
// # Configuration
//
// Flag defaults are read from two files in the configuration directory
// (~/.config/texus on Linux):
//
//   - config.json: a JSON object of flag names to values, as written by
//     "texus init --config"
//   - config.gen: a Gen template whose variable declarations name flags
//
// A config.gen such as
//
//	$log_level = "debug"
//	$max_recursion = 50
//
// is equivalent to --log-level=debug --max-recursion=50. Command-line flags
// take precedence over both files.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o texus .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default ~/.cache/texus/pprof)
//
// # Examples
//
//	# Five reproducible names
//	texus gen names.gen --seed 42 --count 5
//
//	# A single item, with debug logging
//	texus --log-level=debug gen names.gen --item surname
//
//	# Canonical formatting in place
//	texus fmt -w names.gen
package cli
