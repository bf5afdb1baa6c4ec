package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "umod",
		Usage:  "Inspect and extract Umod installer archives",
		Flags:  globalFlags(),
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			infoCmd(),
			listCmd(),
			testCmd(),
			extractCmd(),
			catCmd(),
			verifyCmd(),
		},
	}
}

// setup loads the config file and builds the logger before any command runs.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return ctx, err
	}
	fileConfig = cfg
	applyGlobalConfig(cmd, cfg)

	if debug {
		logLevel = "debug"
	}
	logger, err = newLogger(logLevel, logFormat, stderr(cmd))
	if err != nil {
		return ctx, err
	}
	logger.Debug("config loaded", "path", path)
	return ctx, nil
}
