package main

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/meigma/umod"
	"github.com/meigma/umod/cache"
)

var (
	configFile   string
	logLevel     string
	logFormat    string
	debug        bool
	nameEncoding string
	chunkSize    int64
	maxEntrySize int64
	cacheBlocks  int64
	noVerify     bool

	fileConfig Config
	logger     = slog.New(slog.DiscardHandler)
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config file (default: $XDG_CONFIG_HOME/umod/config.yaml)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
		&cli.StringFlag{
			Name:        "name-encoding",
			Usage:       "IANA charset of stored entry names (e.g. windows-1252); raw keeps bytes as-is",
			Value:       "raw",
			Destination: &nameEncoding,
		},
		&cli.Int64Flag{
			Name:        "chunk-size",
			Usage:       "checksum read size in bytes",
			Value:       umod.DefaultChunkSize,
			Destination: &chunkSize,
		},
		&cli.Int64Flag{
			Name:        "max-entry-size",
			Usage:       "largest entry cat will buffer, in bytes (0 for no limit)",
			Value:       umod.DefaultMaxEntrySize,
			Destination: &maxEntrySize,
		},
		&cli.Int64Flag{
			Name:        "block-cache-blocks",
			Usage:       "blocks kept in memory when reading http(s) archives",
			Value:       cache.DefaultMaxBlocks,
			Destination: &cacheBlocks,
		},
		&cli.BoolFlag{
			Name:        "no-verify",
			Usage:       "skip the checksum scan when opening; http(s) archives are scanned only by test and verify",
			Destination: &noVerify,
		},
	}
}

func jsonFlag(dst *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "print JSON instead of text",
		Destination: dst,
	}
}
