package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	app := &cli.Command{
		Name:    "pitchlog",
		Usage:   "Log soccer match events from video with hotkeys",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, runner.LoadConfig(cmd.String("config"))
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrValidation) || errors.Is(err, shared.ErrMissingArgument) {
			logger.Error("invalid input", "error", err)
			runner.Close()
			os.Exit(2)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
