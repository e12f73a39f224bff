// ABOUTME: FLAC decoder built on mewkiz/flac
// ABOUTME: Frame-by-frame parse into stereo float frames
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/embergarde/chorus/pkg/graph"
	"github.com/mewkiz/flac"
)

// FLAC decodes a complete FLAC stream.
func FLAC(data []byte) (*graph.Buffer, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flac decode: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels < 1 {
		return nil, fmt.Errorf("flac decode: invalid channel count %d", channels)
	}
	scale := float64(int64(1) << (info.BitsPerSample - 1))

	var frames [][2]float64
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode: %w", err)
		}

		n := len(f.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			l := float64(f.Subframes[0].Samples[i]) / scale
			r := l
			if channels > 1 {
				r = float64(f.Subframes[1].Samples[i]) / scale
			}
			frames = append(frames, [2]float64{l, r})
		}
	}

	return &graph.Buffer{Frames: frames, SampleRate: int(info.SampleRate)}, nil
}
