// Package pipeline runs the chunk loop that turns a PCM stream into
// transcription records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/audio"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/models"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/observability/metrics"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/output"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/engine"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/segment"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/service/transcript"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/vad"
)

// Publisher carries transcript events to downstream consumers.
type Publisher interface {
	PublishPartial(ctx context.Context, event models.Event) error
	PublishFinal(ctx context.Context, event models.Event) error
}

// Deps bundles everything one stream needs. Capture is the only
// optional field.
type Deps struct {
	Reader     *audio.ChunkReader
	Capture    *audio.WAVWriter // stdin tap, may be nil
	Detector   vad.Config
	Segments   *segment.Controller
	Window     audio.Manager
	Engine     engine.Engine
	Reconciler *transcript.Reconciler
	Emitter    *output.Emitter
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger

	StreamID   string
	MinWindow  int // decode windows are zero-padded to this many samples
	FullDetail bool
}

// Pipeline consumes chunks until the stream ends. One record is
// emitted per chunk; a final transcript event closes each segment.
type Pipeline struct {
	deps    Deps
	capture *audio.WAVWriter

	// Last emitted record, published as the segment's final snapshot
	// when a boundary or end of stream closes it.
	lastRecord  models.Record
	lastSegment int
	haveRecord  bool
}

// New returns a pipeline over deps.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps, capture: deps.Capture}
}

// Run processes chunks until the input drains or ctx is canceled.
// A nil return means the stream ended normally. Engine and emit
// failures abort the stream and are returned; read failures are logged
// and treated as end of stream.
func (p *Pipeline) Run(ctx context.Context) error {
	d := &p.deps
	logger := d.Logger

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := d.Reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.Metrics.RecordReadError()
			logger.Warn().Err(err).Msg("Chunk read failed, treating as end of stream")
			break
		}
		d.Metrics.RecordChunkRead(len(chunk))

		p.captureChunk(chunk, logger)

		activity := vad.Classify(chunk, d.Detector)
		d.Metrics.RecordActivity(activity.String())

		evictedBefore := d.Window.Offset()
		if d.Segments.Observe(activity) {
			p.finishSegment(ctx)
			d.Window.Boundary(chunk)
			d.Reconciler.Reset()
			d.Metrics.RecordSegmentStart()
			logger.Debug().
				Int("segment", d.Segments.Index()).
				Str("activity", activity.String()).
				Msg("New speech segment")
		} else {
			d.Window.Append(chunk)
		}
		d.Metrics.RecordBufferState(d.Window.Len(), d.Window.Offset()-evictedBefore)

		win := engine.Window{
			Samples: d.Window.Window(d.MinWindow),
			Offset:  d.Window.Offset(),
		}

		start := time.Now()
		decoded, err := d.Engine.Transcribe(ctx, win)
		d.Metrics.RecordEngineCall(len(decoded), err, time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("pipeline: transcribe segment %d: %w", d.Segments.Index(), err)
		}

		d.Metrics.RecordTokensDropped(d.Reconciler.Merge(decoded))

		rec := output.BuildRecord(d.Segments.Index(), d.Reconciler.Tokens(), d.FullDetail)
		if err := d.Emitter.Emit(rec); err != nil {
			d.Metrics.RecordEmit(err)
			return fmt.Errorf("pipeline: emit record: %w", err)
		}
		d.Metrics.RecordEmit(nil)

		p.lastRecord = rec
		p.lastSegment = d.Segments.Index()
		p.haveRecord = true

		p.publishPartial(ctx, rec)
	}

	p.finishSegment(ctx)
	return nil
}

// captureChunk mirrors the chunk to the WAV tap. A write failure
// disables the tap rather than aborting transcription.
func (p *Pipeline) captureChunk(chunk []float32, logger zerolog.Logger) {
	if p.capture == nil {
		return
	}
	if err := p.capture.WriteSamples(chunk); err != nil {
		logger.Warn().Err(err).Msg("Audio capture failed, disabling")
		p.capture = nil
	}
}

// finishSegment publishes the final transcript event for the segment
// that just closed, carrying its last emitted record.
func (p *Pipeline) finishSegment(ctx context.Context) {
	if !p.haveRecord {
		return
	}
	event := models.Event{
		EventType: models.EventTranscriptFinal,
		StreamID:  p.deps.StreamID,
		Segment:   p.lastSegment,
		Record:    p.lastRecord,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := p.deps.Publisher.PublishFinal(ctx, event); err != nil {
		p.deps.Logger.Warn().Err(err).Int("segment", p.lastSegment).Msg("Failed to publish final transcript")
	} else {
		p.deps.Metrics.RecordFinalTranscript()
	}
	p.haveRecord = false
}

func (p *Pipeline) publishPartial(ctx context.Context, rec models.Record) {
	event := models.Event{
		EventType: models.EventTranscriptPartial,
		StreamID:  p.deps.StreamID,
		Segment:   p.lastSegment,
		Record:    rec,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := p.deps.Publisher.PublishPartial(ctx, event); err != nil {
		p.deps.Logger.Warn().Err(err).Int("segment", p.lastSegment).Msg("Failed to publish partial transcript")
		return
	}
	p.deps.Metrics.RecordPartialTranscript()
}
