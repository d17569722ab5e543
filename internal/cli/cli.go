// Package cli handles command line interface logic
package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	retrocli "github.com/retroenv/retrogolib/cli"
	"github.com/retroenv/retrosheets/internal/options"
	"github.com/retroenv/retrosheets/internal/synth"
)

// Subcommand names.
const (
	Sheet  = "sheet"
	Trace  = "trace"
	Export = "export"
	Render = "render"
	Play   = "play"
)

// Export formats selected by the output file extension.
const (
	FormatMIDI = ".mid"
	FormatJSON = ".json"
)

// Options contains the parsed options of a subcommand. Only the sections
// used by the subcommand are set.
type Options struct {
	Command string

	options.Program
	Sheet  options.Sheet
	Trace  options.Trace
	Export options.Export
	Audio  options.Audio
	Render options.Render
}

// ErrHelpRequested is returned when the usage was requested and printed.
var ErrHelpRequested = retrocli.ErrHelpRequested

// UsageError represents an error that should show usage information.
type UsageError struct {
	flags *retrocli.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the usage of the subcommand.
func (e *UsageError) ShowUsage() {
	if e.flags != nil {
		e.flags.ShowUsage()
	}
}

// ParseFlags parses the arguments of a subcommand.
func ParseFlags(command string, args []string) (Options, error) {
	opts := Options{Command: command}
	flags := retrocli.NewFlagSet("retrosheets " + command)

	flags.AddSection("Source", &opts.Source)
	switch command {
	case Sheet:
		flags.AddSection("Sheet", &opts.Sheet)
	case Trace:
		flags.AddSection("Trace", &opts.Trace)
	case Export:
		flags.AddSection("Export", &opts.Export)
	case Render:
		flags.AddSection("Audio", &opts.Audio)
		flags.AddSection("Render", &opts.Render)
	case Play:
		flags.AddSection("Audio", &opts.Audio)
	default:
		return opts, fmt.Errorf("unsupported subcommand '%s'", command)
	}
	flags.AddSection("Flags", &opts.Flags)
	flags.AddPositional(&opts.Positional)

	remaining, err := flags.Parse(args)
	if err != nil {
		if errors.Is(err, retrocli.ErrHelpRequested) {
			return opts, ErrHelpRequested
		}
		// the flag package prints the usage on syntax errors itself
		usageErr := &UsageError{msg: err.Error()}
		var missingFlags *retrocli.MissingFlagsError
		var missingArgs *retrocli.MissingArgsError
		if errors.As(err, &missingFlags) || errors.As(err, &missingArgs) {
			usageErr.flags = flags
		}
		return opts, usageErr
	}

	if err := validateArgs(remaining); err != nil {
		err.flags = flags
		return opts, err
	}
	if err := normalizeOptions(&opts); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	return opts, nil
}

// validateArgs checks that no flags follow the ROM file argument.
func validateArgs(args []string) *UsageError {
	if len(args) == 0 {
		return nil
	}
	arg := args[0]
	if strings.HasPrefix(arg, "-") {
		return &UsageError{
			msg: fmt.Sprintf("Potential argument %s found after ROM file, please pass the ROM file as last argument", arg),
		}
	}
	return &UsageError{msg: "unexpected argument " + arg}
}

// normalizeOptions normalizes and validates option values.
func normalizeOptions(opts *Options) error {
	switch opts.Command {
	case Sheet:
		if opts.Config == "" {
			return errors.New("missing required flag(s): config")
		}

	case Export:
		ext := strings.ToLower(filepath.Ext(opts.Export.Output))
		if ext != FormatMIDI && ext != FormatJSON {
			return fmt.Errorf("unsupported export format '%s', valid: %s, %s", ext, FormatMIDI, FormatJSON)
		}
		if opts.Export.Velocity < 0 || opts.Export.Velocity > 127 {
			return fmt.Errorf("velocity %d out of range 0-127", opts.Export.Velocity)
		}

	case Render, Play:
		waveform, err := synth.ParseWaveform(opts.Audio.Waveform)
		if err != nil {
			return err
		}
		opts.Audio.Waveform = string(waveform)
	}

	if opts.Debug && opts.Quiet {
		return errors.New("debug and quiet flags can not be combined")
	}
	return nil
}

// AudioOptions converts the audio flags to render options.
func AudioOptions(opts options.Audio) synth.Options {
	return synth.Options{
		SampleRate:   opts.SampleRate,
		Speed:        opts.Speed,
		Cut:          opts.Cut,
		OctaveOffset: opts.OctaveOffset,
		Volume:       opts.Volume,
		Waveform:     synth.Waveform(opts.Waveform),
	}
}
