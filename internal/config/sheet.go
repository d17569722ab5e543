package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/retroenv/retrosheets/internal/layout"
	"github.com/retroenv/retrosheets/internal/theory"
	"github.com/retroenv/retrosheets/internal/transform"
	"github.com/retroenv/retrosheets/internal/writer"
	"gopkg.in/yaml.v3"
)

// Default sheet values.
const (
	DefaultOctaveOffset = -3
	DefaultTempo        = 80
)

// ErrInvalidSheet is returned for sheet configurations that can not be used.
var ErrInvalidSheet = errors.New("invalid sheet configuration")

// Sheet is the sheet music configuration of a single track.
type Sheet struct {
	Title      string
	Composer   string
	Dedication string

	Plan     transform.Plan
	Grouping []writer.StaffGroup
	Layout   layout.Params

	OctaveOffset int
	Tempo        int
	Key          *theory.Key // nil selects key detection
}

// SheetFile maps track names to their sheet configuration.
type SheetFile map[string]*Sheet

// LoadSheets reads a sheet configuration file.
func LoadSheets(path string) (SheetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sheet configuration: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseSheets(f)
}

// ParseSheets parses a YAML sheet configuration keyed by track name.
func ParseSheets(r io.Reader) (SheetFile, error) {
	var sheets SheetFile
	if err := yaml.NewDecoder(r).Decode(&sheets); err != nil {
		return nil, fmt.Errorf("decoding sheet configuration: %w", err)
	}
	return sheets, nil
}

// Sheet returns the configuration of the named track.
func (f SheetFile) Sheet(track string) (*Sheet, error) {
	sheet, ok := f[track]
	if !ok || sheet == nil {
		return nil, fmt.Errorf("%w: no entry for track '%s'", ErrInvalidSheet, track)
	}
	return sheet, nil
}

type sheetYAML struct {
	Title        string              `yaml:"title"`
	Composer     string              `yaml:"composer"`
	Dedication   string              `yaml:"dedication"`
	Processing   map[int][]operation `yaml:"processing"`
	Chords       *chords             `yaml:"chords"`
	Grouping     []writer.StaffGroup `yaml:"grouping"`
	StaffArgs    yaml.Node           `yaml:"staff_args"`
	OctaveOffset *int                `yaml:"octave_offset"`
	Tempo        *int                `yaml:"tempo"`
	Key          []string            `yaml:"key"`
	Unknown      map[string]any      `yaml:",inline"`
}

// UnmarshalYAML decodes a sheet and applies the defaults of unset values.
func (s *Sheet) UnmarshalYAML(node *yaml.Node) error {
	var raw sheetYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if len(raw.Unknown) > 0 {
		keys := slices.Sorted(maps.Keys(raw.Unknown))
		return fmt.Errorf("%w: unsupported key '%s' at line %d", ErrInvalidSheet, keys[0], node.Line)
	}

	*s = Sheet{
		Title:        raw.Title,
		Composer:     raw.Composer,
		Dedication:   raw.Dedication,
		Grouping:     raw.Grouping,
		Layout:       layout.DefaultParams(),
		OctaveOffset: DefaultOctaveOffset,
		Tempo:        DefaultTempo,
	}

	if len(raw.Processing) > 0 {
		s.Plan.Operations = make(map[int][]transform.Operation, len(raw.Processing))
		for channel, ops := range raw.Processing {
			for _, op := range ops {
				s.Plan.Operations[channel] = append(s.Plan.Operations[channel], transform.Operation(op))
			}
		}
	}
	if raw.Chords != nil {
		directive := transform.ChordDirective(*raw.Chords)
		s.Plan.Chords = &directive
	}

	if !raw.StaffArgs.IsZero() {
		if err := raw.StaffArgs.Decode(&s.Layout); err != nil {
			return fmt.Errorf("decoding staff_args: %w", err)
		}
	}
	if raw.OctaveOffset != nil {
		s.OctaveOffset = *raw.OctaveOffset
	}
	if raw.Tempo != nil {
		s.Tempo = *raw.Tempo
	}

	if raw.Key != nil {
		if len(raw.Key) != 2 {
			return fmt.Errorf("%w: key needs a tonic and a mode", ErrInvalidSheet)
		}
		key, err := theory.ParseKey(raw.Key[0], raw.Key[1])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSheet, err)
		}
		s.Key = &key
	}
	return nil
}

// Validate checks the sheet against the number of decoded channels.
// Channels added by split operations or chord synthesis are not known
// before processing and are checked by the grouping validation of the writer.
func (s *Sheet) Validate(channels int) error {
	if err := s.Plan.Validate(channels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSheet, err)
	}
	for channel := range s.Plan.Operations {
		if channel < 0 || channel >= channels {
			return fmt.Errorf("%w: processing references channel %d of %d", ErrInvalidSheet, channel, channels)
		}
	}
	if len(s.Grouping) == 0 {
		return fmt.Errorf("%w: no grouping", ErrInvalidSheet)
	}
	if err := s.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSheet, err)
	}
	if s.Tempo <= 0 {
		return fmt.Errorf("%w: tempo %d", ErrInvalidSheet, s.Tempo)
	}
	return nil
}

// operation decodes either a plain operation name or a
// [name, {arguments}] pair.
type operation transform.Operation

func (o *operation) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		o.Name = node.Value
		o.Args = transform.Args{}
		return nil

	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("%w: operation at line %d needs a name and arguments", ErrInvalidSheet, node.Line)
		}
		if err := node.Content[0].Decode(&o.Name); err != nil {
			return fmt.Errorf("decoding operation name: %w", err)
		}
		args := map[string]any{}
		if err := node.Content[1].Decode(&args); err != nil {
			return fmt.Errorf("decoding arguments of operation '%s': %w", o.Name, err)
		}
		o.Args = args
		return nil

	default:
		return fmt.Errorf("%w: unsupported operation at line %d", ErrInvalidSheet, node.Line)
	}
}

// chords decodes either a [a, b] channel pair or a mapping with channels
// and chord options.
type chords transform.ChordDirective

type chordsYAML struct {
	Channels    []int                 `yaml:"channels"`
	Policy      transform.ChordPolicy `yaml:"policy"`
	SkipSeconds bool                  `yaml:"skip_seconds"`
	Strict      bool                  `yaml:"strict"`
}

func (c *chords) UnmarshalYAML(node *yaml.Node) error {
	var raw chordsYAML
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&raw.Channels); err != nil {
			return fmt.Errorf("decoding chord channels: %w", err)
		}
		raw.Policy = transform.PolicyExact
	case yaml.MappingNode:
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("decoding chords: %w", err)
		}
	default:
		return fmt.Errorf("%w: unsupported chords at line %d", ErrInvalidSheet, node.Line)
	}

	if len(raw.Channels) != 2 {
		return fmt.Errorf("%w: chords need 2 channels, got %d", ErrInvalidSheet, len(raw.Channels))
	}
	if raw.Policy == "" {
		raw.Policy = transform.PolicyExact
	}

	c.Channels = [2]int{raw.Channels[0], raw.Channels[1]}
	c.Policy = raw.Policy
	c.SkipSeconds = raw.SkipSeconds
	c.Strict = raw.Strict
	return nil
}
