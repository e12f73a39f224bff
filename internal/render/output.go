// ABOUTME: Audio device output using oto
// ABOUTME: Pulls the destination streamer and feeds 16-bit PCM to oto
package render

import (
	"fmt"
	"log"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"
)

// output owns the oto context and the player that pulls the graph.
type output struct {
	otoCtx *oto.Context
	player *oto.Player
}

// openOutput initializes oto and starts playback of the given streamer.
func openOutput(sampleRate int, src beep.Streamer) (*output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	player := ctx.NewPlayer(&streamReader{src: src})
	player.Play()

	log.Printf("Audio output initialized: %dHz, 2 channels", sampleRate)

	return &output{otoCtx: ctx, player: player}, nil
}

func (o *output) close() {
	if o.player != nil {
		o.player.Close()
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
}

// streamReader adapts a beep.Streamer to the io.Reader oto consumes:
// interleaved stereo int16 little-endian.
type streamReader struct {
	src   beep.Streamer
	block [][2]float64
}

func (r *streamReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(r.block) < frames {
		r.block = make([][2]float64, frames)
	}
	block := r.block[:frames]

	n, _ := r.src.Stream(block)

	for i := 0; i < n; i++ {
		l := clampSample(block[i][0])
		rv := clampSample(block[i][1])
		p[i*4] = byte(l)
		p[i*4+1] = byte(l >> 8)
		p[i*4+2] = byte(rv)
		p[i*4+3] = byte(rv >> 8)
	}
	return n * 4, nil
}

func clampSample(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
