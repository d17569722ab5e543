// Package fileprocessor handles file loading and processing operations
package fileprocessor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/cli"
	"github.com/retroenv/retrosheets/internal/config"
	"github.com/retroenv/retrosheets/internal/export"
	"github.com/retroenv/retrosheets/internal/pipeline"
	"github.com/retroenv/retrosheets/internal/score"
	"github.com/retroenv/retrosheets/internal/synth"
	"github.com/retroenv/retrosheets/internal/transform"
	"github.com/retroenv/retrosheets/internal/writer"
)

// LilyPondExtension is the file extension of written LilyPond documents.
const LilyPondExtension = ".lily"

// ProcessFile runs the workflow of the parsed subcommand.
func ProcessFile(ctx context.Context, logger *log.Logger, opts cli.Options) error {
	p := pipeline.New(logger)

	track, err := p.Load(opts.Program)
	if err != nil {
		return err
	}

	switch opts.Command {
	case cli.Sheet:
		return processSheet(ctx, logger, p, track, opts)
	case cli.Trace:
		return processTrace(p, track, opts)
	case cli.Export:
		return processExport(p, track, opts)
	case cli.Render:
		return processRender(p, track, opts)
	case cli.Play:
		return processPlay(ctx, logger, p, track, opts)
	default:
		return fmt.Errorf("unsupported subcommand '%s'", opts.Command)
	}
}

func processSheet(ctx context.Context, logger *log.Logger, p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) error {
	sheet, err := loadSheet(opts)
	if err != nil {
		return err
	}

	scores, err := p.Process(track, sheet)
	if err != nil {
		return err
	}

	header := writer.Header{
		Title:      sheet.Title,
		Composer:   opts.Sheet.Composer,
		Dedication: opts.Sheet.Dedication,
	}
	if sheet.Composer != "" {
		header.Composer = sheet.Composer
	}
	if sheet.Dedication != "" {
		header.Dedication = sheet.Dedication
	}

	document := GenerateOutputFilename(opts.Sheet.Output, opts.Track, LilyPondExtension)
	err = WriteFile(document, func(w io.Writer) error {
		return p.WriteDocument(w, track, scores, sheet, header, opts.Sheet.MIDI)
	})
	if err != nil {
		return err
	}
	logger.Info("Wrote LilyPond document", log.String("file", document))

	if opts.Sheet.NoLily {
		return nil
	}
	outputBase := filepath.Join(opts.Sheet.Output, opts.Track)
	if err := writer.Engrave(ctx, logger, opts.Sheet.LilyPond, document, outputBase); err != nil {
		return fmt.Errorf("engraving: %w", err)
	}
	logger.Info("Engraved sheet music", log.String("output", outputBase))
	return nil
}

func processTrace(p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) error {
	sel, err := parseChannels(opts.Trace.Channels)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error {
		return p.WriteTrace(w, track, sel)
	}
	if opts.Trace.Output == "" {
		return write(os.Stdout)
	}
	return WriteFile(opts.Trace.Output, write)
}

func processExport(p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) error {
	scores, tempo, err := processedScores(p, track, opts)
	if err != nil {
		return err
	}

	midiOpts := export.DefaultMIDIOptions()
	midiOpts.Velocity = uint8(opts.Export.Velocity)
	midiOpts.Tempo = float64(tempo)
	if opts.Export.Tempo > 0 {
		midiOpts.Tempo = float64(opts.Export.Tempo)
	}

	format := strings.ToLower(filepath.Ext(opts.Export.Output))
	return WriteFile(opts.Export.Output, func(w io.Writer) error {
		return p.Export(w, scores, format, midiOpts)
	})
}

func processRender(p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) error {
	samples, sampleRate, err := renderAudio(p, track, opts)
	if err != nil {
		return err
	}
	return WriteFileSeeker(opts.Render.Output, func(w io.WriteSeeker) error {
		return synth.WriteWAV(w, samples, sampleRate)
	})
}

func processPlay(ctx context.Context, logger *log.Logger, p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) error {
	samples, sampleRate, err := renderAudio(p, track, opts)
	if err != nil {
		return err
	}
	if err := synth.Play(ctx, logger, samples, sampleRate); err != nil {
		return fmt.Errorf("playing track: %w", err)
	}
	return nil
}

func renderAudio(p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) ([]int16, int, error) {
	scores, _, err := processedScores(p, track, opts)
	if err != nil {
		return nil, 0, err
	}
	sel, err := parseChannels(opts.Audio.Channels)
	if err != nil {
		return nil, 0, err
	}

	renderOpts := cli.AudioOptions(opts.Audio)
	samples, err := p.Render(scores, sel, renderOpts)
	if err != nil {
		return nil, 0, err
	}
	return samples, renderOpts.SampleRate, nil
}

// processedScores returns the channels of the track, processed by the sheet
// configuration if one is given, and the tempo of the sheet.
func processedScores(p *pipeline.Pipeline, track *pipeline.Track, opts cli.Options) ([]score.Score, int, error) {
	if opts.Config == "" {
		return track.Scores, config.DefaultTempo, nil
	}

	sheet, err := loadSheet(opts)
	if err != nil {
		return nil, 0, err
	}
	scores, err := p.Process(track, sheet)
	if err != nil {
		return nil, 0, err
	}
	return scores, sheet.Tempo, nil
}

func loadSheet(opts cli.Options) (*config.Sheet, error) {
	sheets, err := config.LoadSheets(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("loading sheet configuration: %w", err)
	}
	sheet, err := sheets.Sheet(opts.Track)
	if err != nil {
		return nil, fmt.Errorf("selecting sheet: %w", err)
	}
	return sheet, nil
}

func parseChannels(expr string) (transform.Selector, error) {
	if expr == "" {
		return transform.Selector{}, nil
	}
	sel, err := transform.ParseSelector(expr)
	if err != nil {
		return transform.Selector{}, fmt.Errorf("parsing channel selection: %w", err)
	}
	return sel, nil
}

// GenerateOutputFilename generates the output filename of a track.
func GenerateOutputFilename(dir, track, extension string) string {
	return filepath.Join(dir, track+extension)
}

// WriteFile writes a file through a temporary file in the target directory
// that is renamed to the target name after a complete write. No partial
// output is left on failure.
func WriteFile(path string, write func(w io.Writer) error) error {
	return WriteFileSeeker(path, func(w io.WriteSeeker) error {
		return write(w)
	})
}

// WriteFileSeeker is like WriteFile for writers that need to seek.
func WriteFileSeeker(path string, write func(w io.WriteSeeker) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := file.Name()
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(file); err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming output file %s: %w", path, err)
	}
	return nil
}

// PrintBanner prints application version information
func PrintBanner(logger *log.Logger, opts cli.Options, version, commit, date string) {
	if opts.Quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info("retrosheets", log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}
