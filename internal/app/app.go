// Package app wires the subcommands of the command line tool.
package app

import (
	"context"
	"errors"

	"github.com/retroenv/retrogolib/buildinfo"
	retrocli "github.com/retroenv/retrogolib/cli"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/cli"
	"github.com/retroenv/retrosheets/internal/config"
	"github.com/retroenv/retrosheets/internal/fileprocessor"
)

// Build contains the version information of the binary.
type Build struct {
	Version string
	Commit  string
	Date    string
}

var subcommands = []struct {
	name        string
	description string
}{
	{cli.Sheet, "write LilyPond sheet music for a track and engrave it"},
	{cli.Trace, "list the decoded music commands of a track"},
	{cli.Export, "export a track as MIDI or JSON"},
	{cli.Render, "render a track to a WAV file"},
	{cli.Play, "play a track"},
}

// NewCommand returns the root command with all subcommands registered.
func NewCommand(ctx context.Context, build Build) *retrocli.Command {
	cmd := retrocli.NewCommand("retrosheets", "Game Boy music to sheet music converter")
	cmd.SetVersion(buildinfo.Version(build.Version, build.Commit, build.Date))

	for _, sub := range subcommands {
		cmd.AddSubcommand(sub.name, sub.description, handler(ctx, sub.name, build))
	}
	return cmd
}

func handler(ctx context.Context, command string, build Build) retrocli.SubcommandHandler {
	return func(args []string) int {
		opts, err := cli.ParseFlags(command, args)
		if err != nil {
			if errors.Is(err, cli.ErrHelpRequested) {
				return 0
			}

			logger := config.CreateLogger(opts.Debug, opts.Quiet)
			var usageErr *cli.UsageError
			if errors.As(err, &usageErr) {
				logger.Error(usageErr.Error())
				usageErr.ShowUsage()
			} else {
				logger.Error("Parsing arguments failed", log.Err(err))
			}
			return 1
		}

		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		fileprocessor.PrintBanner(logger, opts, build.Version, build.Commit, build.Date)

		if err := fileprocessor.ProcessFile(ctx, logger, opts); err != nil {
			// Handle context cancellation (Ctrl+C) gracefully
			if errors.Is(err, context.Canceled) {
				logger.Info("Operation cancelled")
				return 1
			}
			logger.Error("Processing failed", log.String("command", command), log.Err(err))
			return 1
		}
		return 0
	}
}
