// Package loader handles cartridge file loading operations.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"strings"
)

// Game Boy cartridge header layout.
const (
	titleStart     = 0x134
	titleEnd       = 0x144
	cartridgeType  = 0x147
	romSizeCode    = 0x148
	headerChecksum = 0x14D
	headerEnd      = 0x150

	// BankSize is the size of a switchable ROM bank.
	BankSize = 0x4000
)

// ErrEmptyImage is returned for cartridge images without data.
var ErrEmptyImage = errors.New("empty cartridge image")

// Header contains the cartridge header fields used for identification.
type Header struct {
	Title         string
	CartridgeType byte
	ROMSizeCode   byte
	Checksum      byte
	ChecksumValid bool
}

// ROM is a loaded cartridge image.
type ROM struct {
	Data   []byte
	CRC32  uint32
	Header *Header // nil if the image is too small to contain a header
}

// Loader handles loading cartridge files from disk.
type Loader struct{}

// New creates a new cartridge loader.
func New() *Loader {
	return &Loader{}
}

// Load reads a cartridge image from disk.
func (l *Loader) Load(path string) (*ROM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return l.LoadFromBytes(data)
}

// LoadFromBytes wraps raw cartridge image bytes.
func (l *Loader) LoadFromBytes(data []byte) (*ROM, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	rom := &ROM{
		Data:  data,
		CRC32: crc32.ChecksumIEEE(data),
	}
	if len(data) >= headerEnd {
		rom.Header = parseHeader(data)
	}
	return rom, nil
}

func parseHeader(data []byte) *Header {
	title := data[titleStart:titleEnd]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}

	h := &Header{
		Title:         strings.TrimSpace(string(title)),
		CartridgeType: data[cartridgeType],
		ROMSizeCode:   data[romSizeCode],
		Checksum:      data[headerChecksum],
	}

	var sum byte
	for _, b := range data[titleStart:headerChecksum] {
		sum = sum - b - 1
	}
	h.ChecksumValid = sum == h.Checksum
	return h
}

// Banks returns the number of ROM banks of the image.
func (r *ROM) Banks() int {
	return (len(r.Data) + BankSize - 1) / BankSize
}

// BankBias returns the pointer bias of a switchable bank. Pointers into the
// switchable area start at 0x4000, the bias maps them to file offsets.
func BankBias(bank int) int {
	return (bank - 1) * BankSize
}
