package fileprocessor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosheets/internal/cli"
)

var testROM = []byte{
	0xE4, 0x03, 0x23, 0x43, 0x53, 0xFF, 0x00, 0x00,
	0xE5, 0x0F, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00,
}

const testPointers = `[test]
ptr_offset = 0
channels = "0x0, 0x8"
`

const testSheet = `
test:
  title: Test
  tempo: 100
  grouping:
    - channels: [0, 1]
      clef: treble
`

// setupFiles writes the ROM, pointer table and sheet configuration and
// returns the arguments for a subcommand.
func setupFiles(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"test.gb":      string(testROM),
		"pointers.ini": testPointers,
		"sheets.yaml":  testSheet,
	}
	for name, content := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	args := []string{
		"-p", filepath.Join(dir, "pointers.ini"),
		"-c", filepath.Join(dir, "sheets.yaml"),
		"-t", "test",
	}
	return dir, args
}

func runCommand(t *testing.T, command string, args []string) error {
	t.Helper()
	opts, err := cli.ParseFlags(command, args)
	assert.NoError(t, err)
	return ProcessFile(context.Background(), log.NewTestLogger(t), opts)
}

func TestProcessSheet(t *testing.T) {
	dir, args := setupFiles(t)
	out := filepath.Join(dir, "out")
	args = append(args, "-no-lily", "-midi", "-o", out, filepath.Join(dir, "test.gb"))
	assert.NoError(t, runCommand(t, cli.Sheet, args))

	data, err := os.ReadFile(filepath.Join(out, "test.lily"))
	assert.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, " composer=\"Junichi Masuda\"\n")
	assert.Contains(t, doc, "\\midi {\\tempo 4 = 100}")
	assert.Contains(t, doc, "<<\\channelA \\\\ \\channelB>>")
}

func TestProcessTrace(t *testing.T) {
	dir, args := setupFiles(t)
	out := filepath.Join(dir, "trace.txt")
	args = append(args, "-o", out, "-channels", "0", filepath.Join(dir, "test.gb"))
	assert.NoError(t, runCommand(t, cli.Trace, args))

	data, err := os.ReadFile(out)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "; channel A"))
}

func TestProcessExport(t *testing.T) {
	dir, args := setupFiles(t)
	out := filepath.Join(dir, "test.json")
	args = append(args, "-o", out, filepath.Join(dir, "test.gb"))
	assert.NoError(t, runCommand(t, cli.Export, args))

	data, err := os.ReadFile(out)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  [\n"))
}

func TestProcessRender(t *testing.T) {
	dir, args := setupFiles(t)
	out := filepath.Join(dir, "test.wav")
	args = append(args, "-o", out, "-rate", "8000", "-w", "square", filepath.Join(dir, "test.gb"))
	assert.NoError(t, runCommand(t, cli.Render, args))

	f, err := os.Open(out)
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	assert.NoError(t, err)
	assert.Equal(t, uint32(8000), dec.SampleRate)
	assert.Len(t, buf.Data, 12000)
}

func TestProcessUnknownTrack(t *testing.T) {
	dir, args := setupFiles(t)
	args = append(args, "-t", "missing", filepath.Join(dir, "test.gb"))
	assert.Error(t, runCommand(t, cli.Trace, args))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	err := WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	assert.NoError(t, err)
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	errWrite := errors.New("write failed")
	err = WriteFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errWrite
	})
	assert.ErrorIs(t, err, errWrite)

	// the previous content is kept and no temporary file is left
	data, err = os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	entries, err := os.ReadDir(filepath.Dir(path))
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "route_01.lily"), GenerateOutputFilename("out", "route_01", LilyPondExtension))
}
