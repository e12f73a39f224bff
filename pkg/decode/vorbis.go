// ABOUTME: Ogg Vorbis decoder built on jfreymuth/oggvorbis
// ABOUTME: Decodes a whole stream in one call
package decode

import (
	"bytes"
	"fmt"

	"github.com/embergarde/chorus/pkg/graph"
	"github.com/jfreymuth/oggvorbis"
)

// Vorbis decodes a complete Ogg Vorbis stream.
func Vorbis(data []byte) (*graph.Buffer, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("vorbis decode: %w", err)
	}

	samples := make([]float64, len(pcm))
	for i, v := range pcm {
		samples[i] = float64(v)
	}
	return stereoize(samples, format.Channels, format.SampleRate)
}
