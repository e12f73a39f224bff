// ABOUTME: Ogg Opus decoder built on hraban/opus
// ABOUTME: Channel count read from the OpusHead packet, output is 48kHz
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/embergarde/chorus/pkg/graph"
	"github.com/hraban/opus"
)

// opusOutputRate is fixed by libopusfile regardless of the input rate.
const opusOutputRate = 48000

// Opus decodes a complete Ogg Opus stream.
func Opus(data []byte) (*graph.Buffer, error) {
	channels, err := opusChannels(data)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opus decode: %w", err)
	}
	defer stream.Close()

	var samples []float64
	pcm := make([]int16, 16384)
	for {
		n, err := stream.Read(pcm)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opus decode: %w", err)
		}
		for _, v := range pcm[:n*channels] {
			samples = append(samples, float64(v)/32768.0)
		}
	}
	return stereoize(samples, channels, opusOutputRate)
}

// opusChannels pulls the channel count out of the OpusHead packet. The
// hraban stream API does not expose it.
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, []byte("OpusHead"))
	if idx < 0 || idx+10 > len(data) {
		return 0, fmt.Errorf("opus decode: no OpusHead packet")
	}
	channels := int(data[idx+9])
	if channels < 1 {
		return 0, fmt.Errorf("opus decode: invalid channel count %d", channels)
	}
	return channels, nil
}
