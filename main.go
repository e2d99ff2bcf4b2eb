package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/AlseFum/Texus/cli"
	"github.com/AlseFum/Texus/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.Run(ctx, os.Exit, os.Args[1:]...)

	stop()

	if err != nil {
		log.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}
