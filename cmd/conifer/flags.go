package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/conifer-solver/conifer/internal/logger"
)

var (
	logLevel  string
	logFormat string
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, text, json)",
			Value:       "auto",
			Destination: &logFormat,
		},
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger picks the sink from the flags: pretty colors when stderr is
// a terminal, plain text otherwise, JSON on request.
func newLogger() logger.Logger {
	level := parseLevel(logLevel)
	switch strings.ToLower(logFormat) {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	default:
		if isTerminal(os.Stderr.Fd()) {
			return logger.Pretty(os.Stderr, level)
		}
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
}
