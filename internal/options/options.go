// Package options contains the program options.
package options

// Positional contains positional arguments.
type Positional struct {
	ROM string `arg:"positional" usage:"Game Boy ROM file" required:"true"`
}

// Source selects the track to decode.
type Source struct {
	Pointers string `flag:"p,pointers" usage:"pointer table file (.ini, .yaml)" required:"true"`
	Track    string `flag:"t,track" usage:"track to process" default:"route_01"`
	Config   string `flag:"c,config" usage:"sheet configuration file (.yaml)"`
}

// Flags contains behavior options.
type Flags struct {
	Debug bool `flag:"debug" usage:"enable debug logging"`
	Quiet bool `flag:"q,quiet" usage:"quiet mode"`
}

// Sheet contains the options of the sheet music generation.
type Sheet struct {
	Output     string `flag:"o,output" usage:"output directory" default:"."`
	Composer   string `flag:"composer" usage:"composer shown in the header" default:"Junichi Masuda"`
	Dedication string `flag:"dedication" usage:"dedication shown in the header" default:"Pokémon Red&Blue"`
	MIDI       bool   `flag:"midi" usage:"request MIDI output from lilypond"`
	NoLily     bool   `flag:"no-lily" usage:"only write the .lily document without running lilypond"`
	LilyPond   string `flag:"lilypond" usage:"lilypond binary" default:"lilypond" env:"LILYPOND"`
}

// Trace contains the options of the decode trace listing.
type Trace struct {
	Output   string `flag:"o,output" usage:"output file (default: stdout)"`
	Channels string `flag:"channels" usage:"channel selection like 0,2 or 1:3 (default: all)"`
}

// Export contains the options of the MIDI and JSON export.
type Export struct {
	Output   string `flag:"o,output" usage:"output file, the format is taken from the extension (.mid, .json)" required:"true"`
	Tempo    int    `flag:"tempo" usage:"tempo in quarter notes per minute (default: sheet tempo)"`
	Velocity int    `flag:"velocity" usage:"MIDI note velocity" default:"64"`
}

// Audio contains the options of the audio synthesis.
type Audio struct {
	Waveform     string  `flag:"w,waveform" usage:"waveform: sawtooth, square, sine, triangle" default:"sawtooth"`
	SampleRate   int     `flag:"rate" usage:"sample rate in Hz" default:"44100"`
	Speed        float64 `flag:"speed" usage:"seconds per whole note" default:"1.5"`
	Cut          float64 `flag:"cut" usage:"silence at the end of every note in seconds" default:"0.01"`
	OctaveOffset int     `flag:"octave-offset" usage:"octave transposition"`
	Volume       float64 `flag:"volume" usage:"peak amplitude of a single channel" default:"4096"`
	Channels     string  `flag:"channels" usage:"channel selection like 0,2 or 1:3 (default: all)"`
}

// Render contains the options of the WAV rendering.
type Render struct {
	Output string `flag:"o,output" usage:"output .wav file" required:"true"`
}

// Program options shared by all subcommands.
type Program struct {
	Positional
	Source
	Flags
}
