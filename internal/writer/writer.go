// Package writer implements LilyPond document and decode trace writing.
package writer

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/retroenv/retrosheets/internal/layout"
	"github.com/retroenv/retrosheets/internal/theory"
)

// LilyPondVersion is the LilyPond language version of written documents.
const LilyPondVersion = "2.22.2"

const maxChannels = 26

// Document errors.
var (
	ErrInvalidGrouping = errors.New("invalid grouping")
	ErrMissingStaff    = errors.New("missing staff")
)

// StaffGroup is a staff of the score and the channels that it shows.
type StaffGroup struct {
	Channels    []int  `yaml:"channels"`
	Clef        string `yaml:"clef"`
	PartCombine bool   `yaml:"part_combine"`
}

// Header contains the title fields of a document.
type Header struct {
	Title      string
	Composer   string
	Dedication string
	Tagline    string
}

// Paper contains the page layout of a document in millimeters.
type Paper struct {
	Indent       int
	TopMargin    int
	BottomMargin int
	LeftMargin   int
	RightMargin  int
}

// DefaultPaper returns the default page layout.
func DefaultPaper() Paper {
	return Paper{
		TopMargin:    15,
		BottomMargin: 15,
		LeftMargin:   12,
		RightMargin:  12,
	}
}

// Options of the writer.
type Options struct {
	Header Header
	Paper  Paper
	Key    theory.Key
	Tempo  int
	MIDI   bool // request MIDI output from LilyPond

	// comment header, omitted if Track is empty
	Track string
	CRC32 uint32
}

// DefaultOptions returns the default writer options.
func DefaultOptions() Options {
	return Options{
		Header: Header{Tagline: "Bits and Pieces"},
		Paper:  DefaultPaper(),
		Key:    theory.Key{Mode: theory.Major},
		Tempo:  80,
	}
}

// Writer writes LilyPond documents.
type Writer struct {
	options Options
	writer  io.Writer
}

// New creates a new writer.
func New(writer io.Writer, options Options) *Writer {
	return &Writer{
		options: options,
		writer:  writer,
	}
}

// GroupedChannels returns the sorted distinct channel indices referenced by
// the grouping.
func GroupedChannels(grouping []StaffGroup) []int {
	var channels []int
	for _, group := range grouping {
		for _, ch := range group.Channels {
			if !slices.Contains(channels, ch) {
				channels = append(channels, ch)
			}
		}
	}
	slices.Sort(channels)
	return channels
}

// ValidateGrouping checks the grouping against the number of channels.
func ValidateGrouping(grouping []StaffGroup, channels int) error {
	if len(grouping) == 0 {
		return fmt.Errorf("%w: no staves", ErrInvalidGrouping)
	}
	for i, group := range grouping {
		if len(group.Channels) == 0 {
			return fmt.Errorf("%w: staff %d has no channels", ErrInvalidGrouping, i)
		}
		if group.Clef == "" {
			return fmt.Errorf("%w: staff %d has no clef", ErrInvalidGrouping, i)
		}
		if group.PartCombine && len(group.Channels) != 2 {
			return fmt.Errorf("%w: part combined staff %d needs 2 channels, got %d",
				ErrInvalidGrouping, i, len(group.Channels))
		}
		for _, ch := range group.Channels {
			if ch < 0 || ch >= channels || ch >= maxChannels {
				return fmt.Errorf("%w: staff %d references channel %d of %d",
					ErrInvalidGrouping, i, ch, channels)
			}
		}
	}
	return nil
}

// Write writes the complete document. The staves are indexed by channel,
// every channel that is referenced by the grouping needs a staff.
func (w Writer) Write(staves []*layout.Staff, grouping []StaffGroup) error {
	if err := ValidateGrouping(grouping, len(staves)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w.writer, "\\version %q", LilyPondVersion); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}
	if err := w.WriteCommentHeader(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.writer, "\n%s\n%s", w.paper(), w.header()); err != nil {
		return fmt.Errorf("writing paper and header: %w", err)
	}

	for _, ch := range GroupedChannels(grouping) {
		staff := staves[ch]
		if staff == nil {
			return fmt.Errorf("%w for channel %d", ErrMissingStaff, ch)
		}
		if _, err := fmt.Fprintf(w.writer, "\n%s = %s", channelName(ch), staff); err != nil {
			return fmt.Errorf("writing channel %d: %w", ch, err)
		}
	}

	if _, err := fmt.Fprintf(w.writer, "\n%s", w.score(grouping)); err != nil {
		return fmt.Errorf("writing score: %w", err)
	}
	return nil
}

// WriteCommentHeader writes the CRC32 checksum of the ROM and the track name
// as comments to the output.
func (w Writer) WriteCommentHeader() error {
	if w.options.Track == "" {
		return nil
	}
	if _, err := fmt.Fprintf(w.writer, "\n%% ROM CRC32 checksum: %08x", w.options.CRC32); err != nil {
		return fmt.Errorf("writing rom checksum: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "\n%% Track: %s", w.options.Track); err != nil {
		return fmt.Errorf("writing track name: %w", err)
	}
	return nil
}

func (w Writer) paper() string {
	p := w.options.Paper
	buf := &strings.Builder{}
	buf.WriteString("\\paper {\n")
	fmt.Fprintf(buf, " indent=%d\n", p.Indent)
	fmt.Fprintf(buf, " top-margin=%d\n", p.TopMargin)
	fmt.Fprintf(buf, " bottom-margin=%d\n", p.BottomMargin)
	fmt.Fprintf(buf, " left-margin=%d\n", p.LeftMargin)
	fmt.Fprintf(buf, " right-margin=%d\n", p.RightMargin)
	buf.WriteString("}")
	return buf.String()
}

func (w Writer) header() string {
	h := w.options.Header
	buf := &strings.Builder{}
	buf.WriteString("\\header {\n")

	fields := []struct {
		key   string
		value string
	}{
		{"tagline", h.Tagline},
		{"title", h.Title},
		{"composer", h.Composer},
	}
	for _, field := range fields {
		if field.value != "" {
			fmt.Fprintf(buf, " %s=\"%s\"\n", field.key, escape(field.value))
		}
	}
	if h.Dedication != "" {
		fmt.Fprintf(buf, " dedication=\\markup { \\center-column { \"%s\" \\vspace #1 } }\n",
			escape(h.Dedication))
	}

	buf.WriteString("}")
	return buf.String()
}

func (w Writer) score(grouping []StaffGroup) string {
	buf := &strings.Builder{}
	buf.WriteString("\\score {\n \\new GrandStaff <<")

	key := w.options.Key.String()
	for _, group := range grouping {
		names := make([]string, len(group.Channels))
		for i, ch := range group.Channels {
			names[i] = "\\" + channelName(ch)
		}

		if group.PartCombine {
			fmt.Fprintf(buf, "\n  \\new Staff \\with { printPartCombineTexts = ##f } {\\clef %s %s <<\\partCombine %s>>}",
				group.Clef, key, strings.Join(names, " "))
		} else {
			fmt.Fprintf(buf, "\n  \\new Staff {\\clef %s %s <<%s>>}",
				group.Clef, key, strings.Join(names, " \\\\ "))
		}
	}

	buf.WriteString("\n >>")
	if w.options.MIDI {
		buf.WriteString("\n \\layout {}")
		fmt.Fprintf(buf, "\n \\midi {\\tempo 4 = %d}", w.options.Tempo)
	}
	buf.WriteString("\n}\n")
	return buf.String()
}

// channelName returns the variable name of a channel like "channelA".
func channelName(channel int) string {
	return "channel" + string(rune('A'+channel))
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
