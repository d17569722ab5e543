// Package pipeline orchestrates the sheet music workflow stages.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/config"
	"github.com/retroenv/retrosheets/internal/decoder"
	"github.com/retroenv/retrosheets/internal/export"
	"github.com/retroenv/retrosheets/internal/layout"
	"github.com/retroenv/retrosheets/internal/loader"
	"github.com/retroenv/retrosheets/internal/options"
	"github.com/retroenv/retrosheets/internal/score"
	"github.com/retroenv/retrosheets/internal/synth"
	"github.com/retroenv/retrosheets/internal/theory"
	"github.com/retroenv/retrosheets/internal/transform"
	"github.com/retroenv/retrosheets/internal/writer"
)

// ErrNoChannels is returned when a channel selection matches no channel.
var ErrNoChannels = errors.New("no channels selected")

// Pipeline orchestrates the complete sheet music workflow.
type Pipeline struct {
	logger *log.Logger
	loader *loader.Loader
}

// New creates a new sheet music pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
		loader: loader.New(),
	}
}

// Track is a decoded track of a ROM.
type Track struct {
	ROM    *loader.ROM
	Track  decoder.Track
	Scores []score.Score
}

// Load loads the ROM and the pointer table and decodes all channels of the
// selected track.
func (p *Pipeline) Load(opts options.Program) (*Track, error) {
	rom, err := p.loader.Load(opts.ROM)
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}

	table, err := config.LoadPointerTable(opts.Pointers)
	if err != nil {
		return nil, fmt.Errorf("loading pointer table: %w", err)
	}
	track, err := table.Track(opts.Track)
	if err != nil {
		return nil, fmt.Errorf("selecting track: %w", err)
	}

	p.printInfo(opts, rom, track)
	return p.LoadWithROM(rom, track)
}

// LoadWithROM decodes all channels of a track from a pre-loaded ROM.
// This is useful for testing and programmatic usage where the ROM is already in memory.
func (p *Pipeline) LoadWithROM(rom *loader.ROM, track decoder.Track) (*Track, error) {
	dec := decoder.New(p.logger, rom.Data)
	scores, err := dec.DecodeTrack(track)
	if err != nil {
		return nil, fmt.Errorf("decoding track: %w", err)
	}

	return &Track{
		ROM:    rom,
		Track:  track,
		Scores: scores,
	}, nil
}

// Process applies the processing plan of the sheet configuration and
// returns the processed channels, including added split and chord channels.
func (p *Pipeline) Process(t *Track, sheet *config.Sheet) ([]score.Score, error) {
	if sheet == nil {
		return t.Scores, nil
	}
	if err := sheet.Validate(len(t.Scores)); err != nil {
		return nil, err
	}

	scores, err := transform.Apply(p.logger, t.Scores, sheet.Plan)
	if err != nil {
		return nil, fmt.Errorf("processing track '%s': %w", t.Track.Name, err)
	}
	return scores, nil
}

// WriteDocument lays out the grouped channels and writes the LilyPond document.
func (p *Pipeline) WriteDocument(w io.Writer, t *Track, scores []score.Score, sheet *config.Sheet,
	header writer.Header, midi bool) error {

	if err := writer.ValidateGrouping(sheet.Grouping, len(scores)); err != nil {
		return fmt.Errorf("validating grouping: %w", err)
	}

	key := theory.DetectKey(scores)
	if sheet.Key != nil {
		key = *sheet.Key
	}
	p.logger.Debug("Using key", log.Stringer("key", key))

	staves := make([]*layout.Staff, len(scores))
	for _, ch := range writer.GroupedChannels(sheet.Grouping) {
		staff, err := layout.Layout(scores[ch], sheet.OctaveOffset, sheet.Layout)
		if err != nil {
			return fmt.Errorf("laying out channel %d: %w", ch, err)
		}
		p.logger.Debug("Laid out channel",
			log.Int("channel", ch),
			log.Int("bars", staff.BarCount()),
		)
		staves[ch] = staff
	}

	opts := writer.DefaultOptions()
	if header.Tagline != "" {
		opts.Header.Tagline = header.Tagline
	}
	opts.Header.Title = header.Title
	opts.Header.Composer = header.Composer
	opts.Header.Dedication = header.Dedication
	opts.Key = key
	opts.Tempo = sheet.Tempo
	opts.MIDI = midi
	opts.Track = t.Track.Name
	opts.CRC32 = t.ROM.CRC32

	if err := writer.New(w, opts).Write(staves, sheet.Grouping); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// WriteTrace writes the decode trace of every selected channel.
func (p *Pipeline) WriteTrace(w io.Writer, t *Track, sel transform.Selector) error {
	channels, err := selectChannels(len(t.Track.Channels), sel)
	if err != nil {
		return err
	}

	dec := decoder.New(p.logger, t.ROM.Data)
	for _, ch := range channels {
		start := t.Track.Channels[ch]
		_, steps, err := dec.Trace(start, t.Track.Bias)
		if err != nil {
			return fmt.Errorf("tracing channel %d: %w", ch, err)
		}
		if err := writer.WriteTrace(w, ch, start+t.Track.Bias, steps); err != nil {
			return fmt.Errorf("writing trace of channel %d: %w", ch, err)
		}
	}
	return nil
}

// Export writes the channels in the given format, ".mid" or ".json".
func (p *Pipeline) Export(w io.Writer, scores []score.Score, format string, opts export.MIDIOptions) error {
	switch format {
	case ".mid":
		if err := export.WriteMIDI(w, scores, opts); err != nil {
			return fmt.Errorf("writing MIDI: %w", err)
		}
	case ".json":
		if err := export.WriteJSON(w, scores); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format '%s'", format)
	}
	return nil
}

// Render synthesizes the selected channels and mixes them into one signal.
func (p *Pipeline) Render(scores []score.Score, sel transform.Selector, opts synth.Options) ([]int16, error) {
	channels, err := selectChannels(len(scores), sel)
	if err != nil {
		return nil, err
	}

	rendered := make([][]int16, 0, len(channels))
	for _, ch := range channels {
		samples, err := synth.Render(scores[ch], opts)
		if err != nil {
			return nil, fmt.Errorf("rendering channel %d: %w", ch, err)
		}
		rendered = append(rendered, samples)
	}

	mixed := synth.Mix(rendered...)
	p.logger.Info("Rendered audio",
		log.Int("channels", len(channels)),
		log.Float64("seconds", float64(len(mixed))/float64(opts.SampleRate)),
		log.String("waveform", string(opts.Waveform)),
	)
	return mixed, nil
}

// selectChannels returns the channel indices matched by the selector, an
// empty selector matches all channels.
func selectChannels(count int, sel transform.Selector) ([]int, error) {
	var channels []int
	if sel.IsEmpty() {
		for i := range count {
			channels = append(channels, i)
		}
		return channels, nil
	}

	for i, selected := range sel.Mask(count) {
		if selected {
			channels = append(channels, i)
		}
	}
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}
	return channels, nil
}

// printInfo prints information about the ROM being processed.
func (p *Pipeline) printInfo(opts options.Program, rom *loader.ROM, track decoder.Track) {
	if opts.Quiet {
		return
	}

	fields := []log.Field{
		log.String("file", opts.ROM),
		log.String("track", track.Name),
		log.Int("channels", len(track.Channels)),
	}
	if rom.Header != nil {
		fields = append(fields, log.String("title", rom.Header.Title))
	}
	p.logger.Info("Processing Game Boy ROM", fields...)

	if rom.Header != nil && !rom.Header.ChecksumValid {
		p.logger.Warn("Cartridge header checksum mismatch, the ROM might be corrupted")
	}
}
