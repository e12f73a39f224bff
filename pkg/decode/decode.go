// ABOUTME: Decode-from-bytes entry point with format sniffing
// ABOUTME: Dispatches WAV, MP3, Ogg Vorbis, Ogg Opus and FLAC assets
package decode

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/embergarde/chorus/pkg/graph"
)

// ErrUnknownFormat is returned when no decoder recognizes the asset.
var ErrUnknownFormat = errors.New("decode: unknown audio format")

// Bytes decodes a complete audio asset into a stereo buffer. The
// container is detected from magic bytes, not file names, since game
// assets usually arrive as anonymous blobs.
func Bytes(data []byte) (*graph.Buffer, error) {
	switch {
	case len(data) < 4:
		return nil, ErrUnknownFormat
	case bytes.HasPrefix(data, []byte("RIFF")):
		return WAV(data)
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FLAC(data)
	case bytes.HasPrefix(data, []byte("OggS")):
		if isOggOpus(data) {
			return Opus(data)
		}
		return Vorbis(data)
	case bytes.HasPrefix(data, []byte("ID3")), isMP3Frame(data):
		return MP3(data)
	default:
		return nil, ErrUnknownFormat
	}
}

// isOggOpus looks for the OpusHead packet inside the first ogg page.
func isOggOpus(data []byte) bool {
	limit := 512
	if len(data) < limit {
		limit = len(data)
	}
	return bytes.Contains(data[:limit], []byte("OpusHead"))
}

// isMP3Frame matches a raw MPEG audio frame sync (11 set bits).
func isMP3Frame(data []byte) bool {
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// stereoize turns interleaved samples in [-1, 1] into stereo frames.
// Mono is duplicated to both channels; extra channels are dropped.
func stereoize(samples []float64, channels, sampleRate int) (*graph.Buffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("decode: invalid channel count %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("decode: invalid sample rate %d", sampleRate)
	}

	n := len(samples) / channels
	frames := make([][2]float64, n)
	for i := 0; i < n; i++ {
		l := samples[i*channels]
		r := l
		if channels > 1 {
			r = samples[i*channels+1]
		}
		frames[i] = [2]float64{l, r}
	}
	return &graph.Buffer{Frames: frames, SampleRate: sampleRate}, nil
}
