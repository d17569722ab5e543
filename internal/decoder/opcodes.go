package decoder

// Full byte commands, checked before the nibble split.
const (
	opVelocity       = 0xDC
	opInstrument     = 0xEC
	opSpeedDouble    = 0xD6
	opSpeedOneHalf   = 0xD8
	opConditionalJmp = 0xFE
	opJump           = 0xFD
	opReturn         = 0xFF
)

// Nibble commands.
const (
	cmdRest   = 0xC
	cmdOctave = 0xE
	maxNote   = 0xB
)

// octaveBase is the value the operand of an octave command is subtracted from.
const octaveBase = 8

// unknownSkips maps undocumented command bytes to the number of operand bytes
// that follow them.
var unknownSkips = map[byte]int{
	0xF8: 0,
	0xD4: 1,
	0xDD: 1,
	0xEE: 1,
	0xF0: 1,
	0xFC: 1,
	0xEA: 2,
	0xED: 2,
	0xEB: 3,
}

// Mnemonics used in traces.
const (
	mnemonicCall       = "call"
	mnemonicEnd        = "end"
	mnemonicInstrument = "instrument"
	mnemonicJump       = "jump"
	mnemonicNote       = "note"
	mnemonicOctave     = "octave"
	mnemonicRest       = "rest"
	mnemonicReturn     = "return"
	mnemonicSpeed      = "speed"
	mnemonicUnknown    = "unknown"
	mnemonicVelocity   = "velocity"
)
