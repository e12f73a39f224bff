// ABOUTME: WAV decoder built on go-audio/wav
// ABOUTME: Decodes PCM WAV files to stereo float frames
package decode

import (
	"bytes"
	"fmt"

	"github.com/embergarde/chorus/pkg/graph"
	"github.com/go-audio/wav"
)

// WAV decodes a complete RIFF/WAVE file.
func WAV(data []byte) (*graph.Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: %w", err)
	}
	if buf.Format == nil {
		return nil, fmt.Errorf("wav decode: missing format chunk")
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}
	return stereoize(samples, buf.Format.NumChannels, buf.Format.SampleRate)
}
