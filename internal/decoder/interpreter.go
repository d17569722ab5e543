package decoder

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retrosheets/internal/score"
)

// state is the complete interpreter state of a single channel decode.
type state struct {
	cursor    int
	ret       int // pending return address, single slot
	hasRet    bool
	taken     set.Set[int] // conditional jump sites that already fired
	octave    int
	hasOctave bool
	speed     float64
	skip      int // operand bytes left to skip
}

// stateKey identifies a state for loop detection.
type stateKey struct {
	cursor    int
	ret       int
	hasRet    bool
	taken     int
	octave    int
	hasOctave bool
	speed     float64
	skip      int
}

func newState(cursor int) state {
	return state{
		cursor: cursor,
		taken:  set.New[int](),
		speed:  1,
	}
}

func (s *state) key() stateKey {
	return stateKey{
		cursor:    s.cursor,
		ret:       s.ret,
		hasRet:    s.hasRet,
		taken:     s.taken.Size(),
		octave:    s.octave,
		hasOctave: s.hasOctave,
		speed:     s.speed,
		skip:      s.skip,
	}
}

type interpreter struct {
	state

	logger *log.Logger
	rom    []byte
	bias   int
	trace  bool

	score score.Score
	steps []Step
}

// step executes the byte at the cursor and returns whether the end of the
// track has been reached.
func (it *interpreter) step() (bool, error) {
	offset := it.cursor
	b, err := it.read(offset)
	if err != nil {
		return false, err
	}
	it.cursor++

	if it.skip > 0 {
		it.skip--
		it.addOperand(b)
		return false, nil
	}

	switch b {
	case opVelocity:
		it.skip = 1
		it.speed = 1
		it.record(offset, b, mnemonicVelocity, "")

	case opInstrument:
		it.skip = 1
		it.record(offset, b, mnemonicInstrument, "")

	case opSpeedDouble:
		it.skip = 1
		it.speed = 2
		it.record(offset, b, mnemonicSpeed, "x2")

	case opSpeedOneHalf:
		it.skip = 1
		it.speed = 1.5
		it.record(offset, b, mnemonicSpeed, "x1.5")

	case opConditionalJmp:
		return it.conditionalJump(offset, b)

	case opJump:
		return false, it.jump(offset, b)

	case opReturn:
		return it.returnOrEnd(offset, b), nil

	default:
		if skip, ok := unknownSkips[b]; ok {
			it.skip = skip
			it.record(offset, b, mnemonicUnknown, fmt.Sprintf("skip %d", skip))
			return false, nil
		}
		return false, it.nibbleCommand(offset, b)
	}
	return false, nil
}

func (it *interpreter) nibbleCommand(offset int, b byte) error {
	cmd := b >> 4
	arg := b & 0x0F

	switch {
	case cmd <= maxNote:
		if !it.hasOctave {
			return fmt.Errorf("%w: offset 0x%04x", ErrOctaveUnset, offset)
		}
		pitch := score.Pitch{
			Class:  score.PitchClass(cmd % score.PitchClasses),
			Octave: it.octave,
		}
		dur := float64(1+arg) / it.speed
		it.score = append(it.score, score.NewNote(pitch, dur))
		it.record(offset, b, mnemonicNote, fmt.Sprintf("%s %g", pitch, dur))

	case cmd == cmdRest:
		dur := float64(1+arg) / it.speed
		it.score = append(it.score, score.NewRest(dur))
		it.record(offset, b, mnemonicRest, fmt.Sprintf("%g", dur))

	case cmd == cmdOctave:
		it.octave = octaveBase - int(arg)
		it.hasOctave = true
		it.record(offset, b, mnemonicOctave, fmt.Sprintf("%d", it.octave))

	default:
		it.logger.Warn("Encountered unknown byte",
			log.Hex("offset", offset),
			log.Hex("byte", b),
		)
		it.record(offset, b, mnemonicUnknown, "")
	}
	return nil
}

// conditionalJump handles the jump that fires once per site if its
// condition byte is set. Once fired it returns to a pending caller or ends
// the track.
func (it *interpreter) conditionalJump(offset int, b byte) (bool, error) {
	site := it.cursor
	condition, err := it.read(site)
	if err != nil {
		return false, err
	}

	if condition != 0 && !it.taken.Contains(site) {
		target, err := it.target(site + 1)
		if err != nil {
			return false, err
		}
		it.taken.Add(site)
		it.ret = site + 3
		it.hasRet = true
		it.cursor = target
		it.recordWithOperands(offset, b, site, 3, mnemonicJump, fmt.Sprintf("$%04X", target))
		return false, nil
	}

	if it.hasRet {
		it.cursor = it.ret
		it.hasRet = false
		it.recordWithOperands(offset, b, site, 3, mnemonicReturn, fmt.Sprintf("$%04X", it.cursor))
		return false, nil
	}

	it.recordWithOperands(offset, b, site, 3, mnemonicEnd, "")
	it.logger.Debug("Encountered end", log.Hex("offset", offset), log.Hex("byte", b))
	return true, nil
}

// jump handles the unconditional jump, overwriting any pending return address.
func (it *interpreter) jump(offset int, b byte) error {
	site := it.cursor
	target, err := it.target(site)
	if err != nil {
		return err
	}
	it.ret = site + 2
	it.hasRet = true
	it.cursor = target
	it.recordWithOperands(offset, b, site, 2, mnemonicCall, fmt.Sprintf("$%04X", target))
	return nil
}

func (it *interpreter) returnOrEnd(offset int, b byte) bool {
	if it.hasRet {
		it.cursor = it.ret
		it.hasRet = false
		it.record(offset, b, mnemonicReturn, fmt.Sprintf("$%04X", it.cursor))
		return false
	}

	it.record(offset, b, mnemonicEnd, "")
	it.logger.Debug("Encountered end", log.Hex("offset", offset), log.Hex("byte", b))
	return true
}

// target reads a little endian pointer at offset and returns the absolute,
// bias adjusted address.
func (it *interpreter) target(offset int) (int, error) {
	lo, err := it.read(offset)
	if err != nil {
		return 0, err
	}
	hi, err := it.read(offset + 1)
	if err != nil {
		return 0, err
	}

	target := it.bias + (int(hi)<<8 | int(lo))
	if target < 0 || target >= len(it.rom) {
		return 0, fmt.Errorf("%w: target 0x%04x at offset 0x%04x", ErrJumpOutOfBounds, target, offset)
	}
	return target, nil
}

func (it *interpreter) read(offset int) (byte, error) {
	if offset < 0 || offset >= len(it.rom) {
		return 0, fmt.Errorf("%w: offset 0x%04x", ErrBufferExhausted, offset)
	}
	return it.rom[offset], nil
}

func (it *interpreter) record(offset int, b byte, mnemonic, detail string) {
	it.logger.Debug("Instruction",
		log.Hex("offset", offset),
		log.Hex("byte", b),
		log.String("op", mnemonic),
		log.String("detail", detail),
	)

	if !it.trace {
		return
	}
	it.steps = append(it.steps, Step{
		Offset:   offset,
		Opcode:   b,
		Mnemonic: mnemonic,
		Detail:   detail,
	})
}

func (it *interpreter) recordWithOperands(offset int, b byte, site, count int, mnemonic, detail string) {
	it.record(offset, b, mnemonic, detail)
	if !it.trace {
		return
	}
	end := min(site+count, len(it.rom))
	for _, operand := range it.rom[site:end] {
		it.addOperand(operand)
	}
}

func (it *interpreter) addOperand(b byte) {
	if !it.trace || len(it.steps) == 0 {
		return
	}
	last := &it.steps[len(it.steps)-1]
	last.Operands = append(last.Operands, b)
}
