package main

import (
	"log/slog"
	"os"

	"github.com/whitebeard-ai/pawn-installer/cmd/pawn-installer/commands"
)

func main() {
	// Text logger until the config's log-level and log-file are applied
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	commands.Execute()
}
