package main

import (
	"encoding/binary"
	"flag"
	"io"
	"log"
	"os"
	"time"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit PCM)")
	chunkMs := flag.Int("chunk-ms", 100, "Chunk duration written per step")
	realtime := flag.Bool("realtime", true, "Pace output at capture speed")
	flag.Parse()

	// Open audio file
	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	// Read and validate WAV header
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}

	// Validate it's a WAV file
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	// Extract audio format info
	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
	if bitsPerSample != 16 {
		log.Fatalf("Only 16-bit samples supported, got %d", bitsPerSample)
	}
	if sampleRate != 16000 {
		log.Printf("Warning: Sample rate is %d Hz, the transcriber expects 16000 Hz", sampleRate)
	}

	// Raw PCM goes to stdout, progress goes to stderr
	chunkBytes := int(sampleRate) * int(numChannels) * 2 * *chunkMs / 1000
	chunk := make([]byte, chunkBytes)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		if _, err := os.Stdout.Write(chunk[:n]); err != nil {
			log.Fatalf("Failed to write chunk: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if chunkNum%10 == 0 {
			log.Printf("Fed chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate a live capture source
		if *realtime {
			time.Sleep(time.Duration(*chunkMs) * time.Millisecond)
		}
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished feeding: %d chunks, %d bytes in %v", chunkNum, totalBytes, elapsed)
}
