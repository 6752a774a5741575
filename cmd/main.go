package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/sinhayogesh/speech-stream-transcriber/internal/app"
	"github.com/sinhayogesh/speech-stream-transcriber/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run keeps os.Exit out of the way of deferred cleanup. Exit codes:
// 0 the stream ended or the process was signaled, 1 configuration or
// startup failed, 2 the pipeline died mid-stream.
func run(args []string) int {
	fs := flag.NewFlagSet("speech-stream-transcriber", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: speech-stream-transcriber [options] < audio.pcm > records.ndjson\n\n")
		fmt.Fprintf(fs.Output(), "Reads 16-bit little-endian PCM at 16 kHz from stdin and writes one\nJSON transcription record per chunk to stdout.\n\noptions:\n")
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "YAML config file, overlaid on the environment")

		modelPath string
		language  string
		translate bool
		threads   int
		maxTokens int
		beamSize  int
		backend   string

		vadThold  float64
		freqThold float64

		channels  int
		chunkMs   int
		saveAudio string

		policy   string
		bufferMs int
		minMs    int

		fullDetail bool

		kafkaEnabled bool
		brokers      string

		httpAddr string
		logLevel string
	)

	fs.StringVar(&modelPath, "m", "", "path to the ggml model file")
	fs.StringVar(&modelPath, "model", "", "path to the ggml model file")
	fs.StringVar(&language, "l", "", "spoken language, or auto to detect")
	fs.StringVar(&language, "language", "", "spoken language, or auto to detect")
	fs.BoolVar(&translate, "tr", false, "translate to english instead of transcribing")
	fs.BoolVar(&translate, "translate", false, "translate to english instead of transcribing")
	fs.IntVar(&threads, "t", 0, "decode threads, 0 picks min(4, NumCPU)")
	fs.IntVar(&threads, "threads", 0, "decode threads, 0 picks min(4, NumCPU)")
	fs.IntVar(&maxTokens, "mt", 0, "token cap per engine segment")
	fs.IntVar(&maxTokens, "max-tokens", 0, "token cap per engine segment")
	fs.IntVar(&beamSize, "bs", 0, "beam size, <= 0 keeps greedy sampling")
	fs.IntVar(&beamSize, "beam-size", 0, "beam size, <= 0 keeps greedy sampling")
	fs.StringVar(&backend, "backend", "", "transcription backend: whisper or scripted")

	fs.Float64Var(&vadThold, "vth", 0, "voice activity energy threshold")
	fs.Float64Var(&vadThold, "vad-thold", 0, "voice activity energy threshold")
	fs.Float64Var(&freqThold, "fth", 0, "high-pass cutoff in Hz, 0 disables")
	fs.Float64Var(&freqThold, "freq-thold", 0, "high-pass cutoff in Hz, 0 disables")

	fs.IntVar(&channels, "channels", 0, "input channels: 1 mono or 2 interleaved stereo")
	fs.IntVar(&chunkMs, "chunk-ms", 0, "chunk duration read per step")
	fs.StringVar(&saveAudio, "sa", "", "capture the ingested audio to this WAV file")
	fs.StringVar(&saveAudio, "save-audio", "", "capture the ingested audio to this WAV file")

	fs.StringVar(&policy, "policy", "", "rolling window policy: reset or sliding")
	fs.IntVar(&bufferMs, "buffer-ms", 0, "rolling window capacity")
	fs.IntVar(&minMs, "min-ms", 0, "zero-pad decode windows to this duration")

	fs.BoolVar(&fullDetail, "full-detail", false, "include per-token detail in records")

	fs.BoolVar(&kafkaEnabled, "kafka", false, "publish transcript events to Kafka")
	fs.StringVar(&brokers, "brokers", "", "comma-separated Kafka broker addresses")

	fs.StringVar(&httpAddr, "http-addr", "", "metrics and health listener address, empty disables")
	fs.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Flags beat the file and the environment, but only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m", "model":
			cfg.Engine.ModelPath = modelPath
		case "l", "language":
			cfg.Engine.Language = language
		case "tr", "translate":
			cfg.Engine.Translate = translate
		case "t", "threads":
			cfg.Engine.Threads = threads
		case "mt", "max-tokens":
			cfg.Engine.MaxTokens = maxTokens
		case "bs", "beam-size":
			cfg.Engine.BeamSize = beamSize
		case "backend":
			cfg.Engine.Backend = backend
		case "vth", "vad-thold":
			cfg.VAD.Threshold = vadThold
		case "fth", "freq-thold":
			cfg.VAD.CutoffHz = freqThold
		case "channels":
			cfg.Input.Channels = channels
		case "chunk-ms":
			cfg.Input.ChunkMs = chunkMs
		case "sa", "save-audio":
			cfg.Input.SaveAudio = saveAudio
		case "policy":
			cfg.Buffer.Policy = policy
		case "buffer-ms":
			cfg.Buffer.DurationMs = bufferMs
		case "min-ms":
			cfg.Buffer.MinMs = minMs
		case "full-detail":
			cfg.Output.FullDetail = fullDetail
		case "kafka":
			cfg.Kafka.Enabled = kafkaEnabled
		case "brokers":
			cfg.Kafka.Brokers = splitBrokers(brokers)
		case "http-addr":
			cfg.Observability.HTTPAddr = httpAddr
		case "log-level":
			cfg.Observability.LogLevel = logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fs.Usage()
		return 1
	}

	a, err := app.New(cfg, os.Stdin, os.Stdout)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return 1
	}
	defer a.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		log.Error().Err(err).Msg("Pipeline failed")
		return 2
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(), nil
	}
	return config.LoadFile(path)
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
