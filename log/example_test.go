package log_test

import (
	"log/slog"
	"os"

	"github.com/AlseFum/Texus/log"
)

func Example() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"))
	logger.Info("template loaded", slog.String("key", "greeting"), slog.Int("items", 3))
	logger.Debug("not shown")

	// Output:
	// level=INFO msg="template loaded" key=greeting items=3
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithLevel(log.LevelTrace),
		log.WithTimeLayout("none"))

	logger.With(slog.String("item", "main")).Trace("generate start")

	// Output:
	// {"level":"TRACE","msg":"generate start","item":"main"}
}
