package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/models"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topics := flag.String("topics", "transcript.partial,transcript.final", "Topics to tail (comma-separated)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, topic := range strings.Split(*topics, ",") {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			tail(ctx, strings.Split(*brokers, ","), topic)
		}(topic)
	}
	wg.Wait()

	log.Println("Done")
	os.Exit(0)
}

// tail prints every transcript event arriving on one topic.
func tail(ctx context.Context, brokers []string, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	log.Printf("Tailing topic %s", topic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		var event models.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("JSON unmarshal error: %v", err)
			continue
		}

		log.Printf("%s stream=%s segment=%d text=%q",
			event.EventType, event.StreamID, event.Segment, lastText(event.Record))
	}
}

func lastText(rec models.Record) string {
	if len(rec.Transcription) == 0 {
		return ""
	}
	return rec.Transcription[len(rec.Transcription)-1].Text
}
