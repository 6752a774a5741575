// Package app assembles the transcription pipeline from configuration
// and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/audio"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/config"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/events"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/observability"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/observability/logging"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/observability/metrics"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/output"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine/scripted"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine/whisper"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/pipeline"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/segment"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/transcript"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/vad"
)

// App holds one stream's fully wired pipeline and the process-wide
// services around it.
type App struct {
	cfg         *config.Config
	streamID    string
	startupTime time.Time

	pipeline  *pipeline.Pipeline
	engine    engine.Engine
	capture   *audio.WAVWriter
	publisher *events.Publisher
	obsServer *observability.Server
}

// New wires a pipeline reading PCM from in and writing records to out.
// Any error here is a startup failure: the model did not load, the
// capture file could not be created, or the configuration asked for
// something no component provides.
func New(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &App{
		cfg:      cfg,
		streamID: uuid.NewString(),
	}

	reader, err := audio.NewChunkReader(in, cfg.Input.Channels, cfg.ChunkSamples())
	if err != nil {
		return nil, err
	}

	window, err := audio.NewManager(audio.Policy(cfg.Buffer.Policy), cfg.BufferCapacity())
	if err != nil {
		return nil, err
	}

	if cfg.Input.SaveAudio != "" {
		a.capture, err = audio.NewWAVWriter(cfg.Input.SaveAudio, cfg.Input.SampleRateHz)
		if err != nil {
			return nil, err
		}
	}

	a.engine, err = newEngine(cfg)
	if err != nil {
		a.closeCapture()
		return nil, err
	}

	a.publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})

	if cfg.Observability.HTTPAddr != "" {
		a.obsServer = observability.NewServer(cfg.Observability.HTTPAddr)
	}

	a.pipeline = pipeline.New(pipeline.Deps{
		Reader:  reader,
		Capture: a.capture,
		Detector: vad.Config{
			SampleRate: cfg.Input.SampleRateHz,
			WindowMs:   cfg.VAD.WindowMs,
			Threshold:  float32(cfg.VAD.Threshold),
			CutoffHz:   float32(cfg.VAD.CutoffHz),
		},
		Segments:   segment.New(),
		Window:     window,
		Engine:     a.engine,
		Reconciler: transcript.NewReconciler(),
		Emitter:    output.NewEmitter(out),
		Publisher:  a.publisher,
		Metrics:    metrics.DefaultMetrics,
		Logger:     logging.WithStream(a.streamID),
		StreamID:   a.streamID,
		MinWindow:  cfg.MinWindowSamples(),
		FullDetail: cfg.Output.FullDetail,
	})

	return a, nil
}

func newEngine(cfg *config.Config) (engine.Engine, error) {
	switch cfg.Engine.Backend {
	case "whisper":
		return whisper.New(whisper.Config{
			ModelPath:       cfg.Engine.ModelPath,
			Language:        cfg.Engine.Language,
			Translate:       cfg.Engine.Translate,
			Threads:         cfg.Engine.Threads,
			MaxTokens:       cfg.Engine.MaxTokens,
			BeamSize:        cfg.Engine.BeamSize,
			TokenTimestamps: cfg.Engine.TokenTimestamps,
		})
	case "scripted":
		return scripted.New(cfg.Input.SampleRateHz), nil
	default:
		return nil, fmt.Errorf("app: unknown engine backend %q", cfg.Engine.Backend)
	}
}

// Run starts the observability server if one is configured and drives
// the pipeline until the stream ends or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.startupTime = time.Now().UTC()

	if a.obsServer != nil {
		a.obsServer.Start()
	}

	log.Info().
		Str("streamId", a.streamID).
		Str("backend", a.cfg.Engine.Backend).
		Str("model", a.cfg.Engine.ModelPath).
		Str("language", a.cfg.Engine.Language).
		Int("threads", a.cfg.Engine.Threads).
		Str("bufferPolicy", a.cfg.Buffer.Policy).
		Int("sampleRate", a.cfg.Input.SampleRateHz).
		Int("channels", a.cfg.Input.Channels).
		Int("chunkSamples", a.cfg.ChunkSamples()).
		Int("bufferCapacity", a.cfg.BufferCapacity()).
		Time("startupTime", a.startupTime).
		Msg("Speech transcriber started")

	return a.pipeline.Run(ctx)
}

// Shutdown releases everything Run was using. Safe to call after Run
// returns an error.
func (a *App) Shutdown() {
	log.Info().Str("streamId", a.streamID).Msg("Speech transcriber shutting down")

	a.closeCapture()

	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close engine")
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}

	if a.obsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.obsServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down observability server")
		}
	}
}

func (a *App) closeCapture() {
	if a.capture == nil {
		return
	}
	if err := a.capture.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close audio capture")
	}
	a.capture = nil
}
