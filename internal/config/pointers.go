package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/config"
	"github.com/retroenv/retrosheets/internal/decoder"
	"github.com/retroenv/retrosheets/internal/loader"
	"gopkg.in/yaml.v3"
)

// Pointer table errors.
var (
	ErrUnknownTrack   = errors.New("unknown track")
	ErrInvalidPointer = errors.New("invalid pointer")
)

// PointerTable maps track names to the channel start pointers of the track.
type PointerTable map[string]decoder.Track

// LoadPointerTable reads a pointer table file. Files with a .yaml or .yml
// extension are parsed as YAML, everything else as INI.
func LoadPointerTable(path string) (PointerTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pointer table: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParsePointerTableYAML(f)
	default:
		return ParsePointerTableINI(f)
	}
}

// ParsePointerTableINI parses a pointer table with one section per track:
//
//	[route_01]
//	ptr_offset = 0x8000
//	channels = "0xA4F1, 0xA51B, 0xA558"
//
// A bank key can be used instead of ptr_offset to derive the bias from the
// ROM bank that contains the track.
func ParsePointerTableINI(r io.Reader) (PointerTable, error) {
	cfg, err := config.Parse(r, config.Options{
		CaseSensitive:  true,
		InlineComments: true,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing pointer table: %w", err)
	}

	table := PointerTable{}
	for section := range cfg.Sections() {
		if section.Name == "" {
			continue
		}
		table[section.Name] = decoder.Track{Name: section.Name}
	}

	for entry := range cfg.Entries() {
		track, ok := table[entry.Section]
		if !ok {
			return nil, fmt.Errorf("line %d: key '%s' outside of a track section", entry.Line, entry.Key)
		}

		raw := strings.Trim(entry.Value.Raw, `"`)
		switch entry.Key {
		case "ptr_offset":
			track.Bias, err = parsePointer(raw)
		case "bank":
			var bank int
			bank, err = parsePointer(raw)
			track.Bias = loader.BankBias(bank)
		case "channels":
			track.Channels, err = parsePointerList(raw)
		default:
			err = fmt.Errorf("unsupported key '%s'", entry.Key)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", entry.Line, err)
		}
		table[entry.Section] = track
	}

	if err := table.validate(); err != nil {
		return nil, err
	}
	return table, nil
}

type yamlTrack struct {
	PtrOffset int   `yaml:"ptr_offset"`
	Bank      int   `yaml:"bank"`
	Channels  []int `yaml:"channels"`
}

// ParsePointerTableYAML parses a pointer table in YAML format, mapping every
// track name to its ptr_offset and channels list.
func ParsePointerTableYAML(r io.Reader) (PointerTable, error) {
	var tracks map[string]yamlTrack
	if err := yaml.NewDecoder(r).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decoding pointer table: %w", err)
	}

	table := make(PointerTable, len(tracks))
	for name, t := range tracks {
		bias := t.PtrOffset
		if t.Bank != 0 {
			bias = loader.BankBias(t.Bank)
		}
		table[name] = decoder.Track{
			Name:     name,
			Bias:     bias,
			Channels: t.Channels,
		}
	}

	if err := table.validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Track returns the named track.
func (p PointerTable) Track(name string) (decoder.Track, error) {
	track, ok := p[name]
	if !ok {
		return decoder.Track{}, fmt.Errorf("%w '%s', available: %s",
			ErrUnknownTrack, name, strings.Join(p.Names(), ", "))
	}
	return track, nil
}

// Names returns the sorted track names of the table.
func (p PointerTable) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (p PointerTable) validate() error {
	for _, name := range p.Names() {
		track := p[name]
		if len(track.Channels) == 0 {
			return fmt.Errorf("track '%s' has no channels", name)
		}
		for _, ptr := range track.Channels {
			if ptr < 0 {
				return fmt.Errorf("%w: track '%s' channel pointer %d", ErrInvalidPointer, name, ptr)
			}
		}
	}
	return nil
}

// parsePointer parses a decimal or hexadecimal number, hexadecimal numbers
// use a 0x or $ prefix.
func parsePointer(s string) (int, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "$"); ok {
		s = "0x" + rest
	}
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w '%s'", ErrInvalidPointer, s)
	}
	return int(i), nil
}

func parsePointerList(s string) ([]int, error) {
	var pointers []int
	for field := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		ptr, err := parsePointer(field)
		if err != nil {
			return nil, err
		}
		pointers = append(pointers, ptr)
	}
	return pointers, nil
}
