// ABOUTME: Decoded PCM buffer shared between decoders and backends
// ABOUTME: Stereo float64 frames plus the rate they were decoded at
package graph

// Buffer holds one fully decoded audio asset. Frames are interleaved
// stereo in [-1, 1]; mono material is upmixed at decode time. Buffers
// are immutable once built.
type Buffer struct {
	Frames     [][2]float64
	SampleRate int
}

// Duration returns the buffer length in seconds, 0 for an empty or
// malformed buffer.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Frames)) / float64(b.SampleRate)
}
