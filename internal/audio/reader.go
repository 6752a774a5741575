// Package audio provides PCM ingestion, the rolling transcription window
// and WAV capture for the pipeline.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// pcmScale converts signed 16-bit samples to the engine's [-1, 1] range.
const pcmScale = 32768.0

// ChunkReader reads fixed-duration chunks of interleaved 16-bit
// little-endian PCM and converts them to mono float32 samples. Stereo
// sources are downmixed by averaging each left/right pair.
type ChunkReader struct {
	r        io.Reader
	channels int
	buf      []byte
}

// NewChunkReader wraps r. chunkSamples is the mono sample count per chunk;
// the raw read size scales with the channel count.
func NewChunkReader(r io.Reader, channels, chunkSamples int) (*ChunkReader, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("audio: unsupported channel count %d", channels)
	}
	if chunkSamples <= 0 {
		return nil, fmt.Errorf("audio: chunk size must be positive, got %d", chunkSamples)
	}
	return &ChunkReader{
		r:        r,
		channels: channels,
		buf:      make([]byte, chunkSamples*channels*2),
	}, nil
}

// Next reads one chunk and returns it as freshly allocated mono samples.
// A short final read yields a short chunk with a nil error; the following
// call reports io.EOF. Trailing bytes that do not form a complete frame are
// dropped, and a final read that yields no complete frame ends the stream.
func (cr *ChunkReader) Next() ([]float32, error) {
	n, err := io.ReadFull(cr.r, cr.buf)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("audio: read chunk: %w", err)
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("audio: read chunk: %w", err)
	}

	frameBytes := cr.channels * 2
	frames := n / frameBytes
	if frames == 0 {
		return nil, io.EOF
	}

	samples := make([]float32, frames)
	if cr.channels == 1 {
		for i := 0; i < frames; i++ {
			s := int16(binary.LittleEndian.Uint16(cr.buf[i*2:]))
			samples[i] = float32(s) / pcmScale
		}
		return samples, nil
	}

	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(cr.buf[i*4:]))
		r := int16(binary.LittleEndian.Uint16(cr.buf[i*4+2:]))
		mono := int16((int32(l) + int32(r)) / 2)
		samples[i] = float32(mono) / pcmScale
	}
	return samples, nil
}
