package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestCommand(t *testing.T) {
	dir := t.TempDir()
	rom := filepath.Join(dir, "test.gb")
	pointers := filepath.Join(dir, "pointers.ini")
	assert.NoError(t, os.WriteFile(rom, []byte{0xE4, 0x03, 0xFF}, 0600))
	assert.NoError(t, os.WriteFile(pointers, []byte("[test]\nchannels = \"0x0\"\n"), 0600))

	cmd := NewCommand(context.Background(), Build{Version: "dev"})

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"--version"}, 0},
		{"no subcommand", nil, 1},
		{"unknown subcommand", []string{"disassemble"}, 1},
		{"subcommand help", []string{"trace", "-h"}, 0},
		{"missing arguments", []string{"trace"}, 1},
		{"trace", []string{"trace", "-q", "-p", pointers, "-t", "test", "-o", filepath.Join(dir, "trace.txt"), rom}, 0},
		{"unknown track", []string{"trace", "-q", "-p", pointers, "-t", "route_01", rom}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cmd.Execute(tt.args))
		})
	}
}
