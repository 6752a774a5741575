package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// wavHeaderSize is the canonical PCM header length: RIFF chunk descriptor,
// fmt sub-chunk and data sub-chunk header.
const wavHeaderSize = 44

// WAVWriter captures the ingested mono stream to a 16-bit PCM WAV file.
// The header is written up front with zero sizes and patched on Close, so
// the capture file stays valid however long the stream runs.
type WAVWriter struct {
	f          *os.File
	sampleRate int
	dataBytes  uint32
}

// NewWAVWriter creates path and writes the provisional header.
func NewWAVWriter(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio: create capture file: %w", err)
	}
	w := &WAVWriter{f: f, sampleRate: sampleRate}
	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *WAVWriter) writeHeader() error {
	h := make([]byte, wavHeaderSize)
	copy(h[0:4], "RIFF")
	// h[4:8] RIFF size, patched on Close
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt sub-chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(h[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(w.sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(h[32:34], 2)                      // block align
	binary.LittleEndian.PutUint16(h[34:36], 16)                     // bits per sample
	copy(h[36:40], "data")
	// h[40:44] data size, patched on Close

	if _, err := w.f.Write(h); err != nil {
		return fmt.Errorf("audio: write capture header: %w", err)
	}
	return nil
}

// WriteSamples appends one chunk, clamped to [-1, 1] and quantized to
// 16-bit PCM.
func (w *WAVWriter) WriteSamples(samples []float32) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(s*32767)))
	}
	n, err := w.f.Write(buf)
	w.dataBytes += uint32(n)
	if err != nil {
		return fmt.Errorf("audio: write capture samples: %w", err)
	}
	return nil
}

// Close patches the header sizes and closes the file.
func (w *WAVWriter) Close() error {
	sizes := make([]byte, 4)

	binary.LittleEndian.PutUint32(sizes, 36+w.dataBytes)
	if _, err := w.f.WriteAt(sizes, 4); err != nil {
		w.f.Close()
		return fmt.Errorf("audio: patch capture header: %w", err)
	}

	binary.LittleEndian.PutUint32(sizes, w.dataBytes)
	if _, err := w.f.WriteAt(sizes, 40); err != nil {
		w.f.Close()
		return fmt.Errorf("audio: patch capture header: %w", err)
	}

	if err := w.f.Close(); err != nil {
		return fmt.Errorf("audio: close capture file: %w", err)
	}
	return nil
}
