package writer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/retroenv/retrogolib/log"
)

// ErrLilyPondNotFound is returned when the lilypond binary is not installed.
var ErrLilyPondNotFound = errors.New("lilypond binary not found")

// Engrave runs the lilypond binary on a document. The output files are named
// after outputBase with the format extension appended by lilypond.
func Engrave(ctx context.Context, logger *log.Logger, binary, document, outputBase string) error {
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLilyPondNotFound, err)
	}

	cmd := exec.CommandContext(ctx, path, "-o", outputBase, document)
	logger.Debug("Running lilypond", log.String("command", cmd.String()))

	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			logger.Error("LilyPond output", log.String("output", string(output)))
		}
		return fmt.Errorf("running lilypond: %w", err)
	}
	logger.Debug("LilyPond output", log.String("output", string(output)))
	return nil
}
