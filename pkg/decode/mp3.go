// ABOUTME: MP3 decoder built on hajimehoshi/go-mp3
// ABOUTME: go-mp3 always yields 16-bit little-endian stereo
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/embergarde/chorus/pkg/graph"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3 decodes a complete MP3 stream.
func MP3(data []byte) (*graph.Buffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}

	// 16-bit LE, two channels, interleaved.
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	return stereoize(samples, 2, d.SampleRate())
}
