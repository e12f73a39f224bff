// ABOUTME: In-memory WAV fixture generator for decoder tests
// ABOUTME: Builds small sine-wave files with go-audio/wav
package audiotest

import (
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SineWAV renders a 16-bit PCM WAV file in memory: a sine tone at the
// given frequency, length in frames per channel.
func SineWAV(sampleRate, channels, frames int, freq float64) ([]byte, error) {
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := int(math.Sin(2*math.Pi*freq*t) * 0.5 * 32767)
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	var mem memWriteSeeker
	enc := wav.NewEncoder(&mem, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("wav fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav fixture: %w", err)
	}
	return mem.buf, nil
}

// memWriteSeeker is the minimal io.WriteSeeker the wav encoder needs to
// patch chunk sizes after writing.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	m.pos = int(pos)
	return pos, nil
}
