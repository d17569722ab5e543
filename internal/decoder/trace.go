package decoder

import (
	"fmt"
	"strings"
)

// Step is a single executed instruction of a decode trace.
type Step struct {
	Offset   int    // absolute offset of the command byte
	Opcode   byte   // command byte
	Operands []byte // operand bytes following the command
	Mnemonic string
	Detail   string
}

// Bytes returns the command byte followed by its operands.
func (s Step) Bytes() []byte {
	b := make([]byte, 0, 1+len(s.Operands))
	b = append(b, s.Opcode)
	return append(b, s.Operands...)
}

func (s Step) String() string {
	if s.Detail == "" {
		return s.Mnemonic
	}
	return s.Mnemonic + " " + s.Detail
}

// HexBytes returns the raw bytes of the step formatted like "$fe $01 $00 $40".
func (s Step) HexBytes() string {
	buf := &strings.Builder{}
	for i, b := range s.Bytes() {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(buf, "$%02x", b)
	}
	return buf.String()
}
