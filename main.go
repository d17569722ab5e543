// Package main implements the main entry point for a Game Boy music to sheet music converter
package main

import (
	"os"

	"github.com/retroenv/retrogolib/app"
	_ "github.com/retroenv/retrogolib/audio/sdl2" // registers the SDL2 audio renderer
	sheetsapp "github.com/retroenv/retrosheets/internal/app"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	cmd := sheetsapp.NewCommand(ctx, sheetsapp.Build{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	os.Exit(cmd.Execute(os.Args[1:]))
}
