package writer

import (
	"fmt"
	"io"

	"github.com/retroenv/retrosheets/internal/decoder"
)

// WriteTrace writes a decode trace of a channel as a listing with the file
// offset, raw bytes and decoded meaning of every executed command.
func WriteTrace(w io.Writer, channel, start int, steps []decoder.Step) error {
	if _, err := fmt.Fprintf(w, "; channel %s, start $%05x, %d steps\n", string(rune('A'+channel)), start, len(steps)); err != nil {
		return fmt.Errorf("writing trace header: %w", err)
	}

	for _, step := range steps {
		if _, err := fmt.Fprintf(w, "$%05x  %-20s ; %s\n", step.Offset, step.HexBytes(), step); err != nil {
			return fmt.Errorf("writing trace line: %w", err)
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}
