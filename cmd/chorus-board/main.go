// ABOUTME: Entry point for the chorus soundboard
// ABOUTME: Loads audio files from the command line into a live engine
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/embergarde/chorus/internal/render"
	"github.com/embergarde/chorus/internal/ui"
	"github.com/embergarde/chorus/internal/version"
	"github.com/embergarde/chorus/pkg/engine"
)

var (
	sampleRate = flag.Int("rate", 48000, "Output sample rate in Hz")
	logFile    = flag.String("log-file", "chorus-board.log", "Log file path")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <audio files...>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Supported formats: WAV, MP3, FLAC, Ogg Vorbis, Ogg Opus\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file only.
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(f)

	log.Printf("Starting %s soundboard %s", version.Product, version.Version)

	backend, err := render.New(render.Config{SampleRate: *sampleRate})
	if err != nil {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		log.Fatalf("audio output error: %v", err)
	}
	defer backend.Close()

	eng, err := engine.New(backend, engine.Config{})
	if err != nil {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		log.Fatalf("engine error: %v", err)
	}
	defer eng.Close()

	sounds := make([]ui.Sound, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		h := eng.Load(data)
		sounds = append(sounds, ui.Sound{Name: filepath.Base(path), Source: h})
		log.Printf("loaded %s as source %d (%d bytes)", path, h, len(data))
	}
	if len(sounds) == 0 {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		log.Fatal("no loadable audio files")
	}

	// Give the decoders a moment so durations show on first paint.
	time.Sleep(200 * time.Millisecond)

	if err := ui.Run(eng, sounds); err != nil {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		log.Fatalf("TUI error: %v", err)
	}
}
