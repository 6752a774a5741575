// Package config loads pipeline configuration from the environment,
// with an optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable for the transcription pipeline.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Input         InputConfig         `yaml:"input"`
	VAD           VADConfig           `yaml:"vad"`
	Buffer        BufferConfig        `yaml:"buffer"`
	Engine        EngineConfig        `yaml:"engine"`
	Output        OutputConfig        `yaml:"output"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServiceConfig identifies this service instance.
type ServiceConfig struct {
	Principal string `yaml:"principal"`
}

// InputConfig describes the PCM stream arriving on stdin.
type InputConfig struct {
	SampleRateHz int    `yaml:"sampleRateHz"` // engine requires 16000
	Channels     int    `yaml:"channels"`     // 1 mono, 2 interleaved stereo
	ChunkMs      int    `yaml:"chunkMs"`      // read granularity
	SaveAudio    string `yaml:"saveAudio"`    // WAV capture path, empty disables
}

// VADConfig tunes the speech/silence classifier.
type VADConfig struct {
	Threshold float64 `yaml:"threshold"`
	CutoffHz  float64 `yaml:"cutoffHz"` // high-pass cutoff, 0 disables the filter
	WindowMs  int     `yaml:"windowMs"` // tail energy window
}

// BufferConfig shapes the rolling decode window.
type BufferConfig struct {
	Policy     string `yaml:"policy"` // reset or sliding
	DurationMs int    `yaml:"durationMs"`
	MinMs      int    `yaml:"minMs"` // decode windows are zero-padded to this
}

// EngineConfig selects and tunes the transcription backend.
type EngineConfig struct {
	Backend         string `yaml:"backend"` // whisper or scripted
	ModelPath       string `yaml:"modelPath"`
	Language        string `yaml:"language"`
	Translate       bool   `yaml:"translate"`
	Threads         int    `yaml:"threads"`  // 0 picks min(4, NumCPU)
	MaxTokens       int    `yaml:"maxTokens"`
	BeamSize        int    `yaml:"beamSize"` // <= 0 keeps greedy sampling
	TokenTimestamps bool   `yaml:"tokenTimestamps"`
}

// OutputConfig controls the record stream on stdout.
type OutputConfig struct {
	FullDetail bool `yaml:"fullDetail"` // include per-token detail arrays
}

// KafkaConfig configures transcript event publication.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	TopicPartial string   `yaml:"topicPartial"`
	TopicFinal   string   `yaml:"topicFinal"`
	Principal    string   `yaml:"principal"`
}

// ObservabilityConfig configures logging and the admin endpoint.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"` // json or console
	HTTPAddr  string `yaml:"httpAddr"`  // metrics/health listener, empty disables
}

// Load builds a Config from the environment. Unset or unparseable
// variables fall back to their defaults.
func Load() *Config {
	cfg := &Config{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-speech-transcriber"),
		},
		Input: InputConfig{
			SampleRateHz: envOrDefaultInt("INPUT_SAMPLE_RATE_HZ", 16000),
			Channels:     envOrDefaultInt("INPUT_CHANNELS", 2),
			ChunkMs:      envOrDefaultInt("INPUT_CHUNK_MS", 500),
			SaveAudio:    envOrDefault("INPUT_SAVE_AUDIO", ""),
		},
		VAD: VADConfig{
			Threshold: envOrDefaultFloat("VAD_THRESHOLD", 0.2),
			CutoffHz:  envOrDefaultFloat("VAD_FREQ_CUTOFF_HZ", 100),
			WindowMs:  envOrDefaultInt("VAD_WINDOW_MS", 250),
		},
		Buffer: BufferConfig{
			Policy:     envOrDefault("BUFFER_POLICY", "reset"),
			DurationMs: envOrDefaultInt("BUFFER_DURATION_MS", 10000),
			MinMs:      envOrDefaultInt("BUFFER_MIN_MS", 500),
		},
		Engine: EngineConfig{
			Backend:         envOrDefault("ENGINE_BACKEND", "whisper"),
			ModelPath:       envOrDefault("ENGINE_MODEL_PATH", "models/ggml-base.en.bin"),
			Language:        envOrDefault("ENGINE_LANGUAGE", "en"),
			Translate:       envOrDefaultBool("ENGINE_TRANSLATE", false),
			Threads:         envOrDefaultInt("ENGINE_THREADS", 0),
			MaxTokens:       envOrDefaultInt("ENGINE_MAX_TOKENS", 32),
			BeamSize:        envOrDefaultInt("ENGINE_BEAM_SIZE", -1),
			TokenTimestamps: envOrDefaultBool("ENGINE_TOKEN_TIMESTAMPS", true),
		},
		Output: OutputConfig{
			FullDetail: envOrDefaultBool("OUTPUT_FULL_DETAIL", true),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envOrDefaultStrings("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "transcript.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "transcript.final"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
			HTTPAddr:  envOrDefault("HTTP_ADDR", ""),
		},
	}

	applyFallbacks(cfg)
	return cfg
}

// LoadFile builds a Config from the environment and overlays values
// from a YAML file on top. Keys absent from the file keep their
// environment-derived values.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyFallbacks(cfg)
	return cfg, nil
}

func applyFallbacks(cfg *Config) {
	if cfg.Kafka.Principal == "" {
		cfg.Kafka.Principal = cfg.Service.Principal
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Input.SampleRateHz != 16000 {
		return fmt.Errorf("config: sample rate %d not supported, engine requires 16000", c.Input.SampleRateHz)
	}
	if c.Input.Channels != 1 && c.Input.Channels != 2 {
		return fmt.Errorf("config: channels must be 1 or 2, got %d", c.Input.Channels)
	}
	if c.Input.ChunkMs <= 0 {
		return fmt.Errorf("config: chunk duration must be positive, got %dms", c.Input.ChunkMs)
	}
	if c.VAD.WindowMs <= 0 {
		return fmt.Errorf("config: vad window must be positive, got %dms", c.VAD.WindowMs)
	}
	switch c.Buffer.Policy {
	case "reset", "sliding":
	default:
		return fmt.Errorf("config: unknown buffer policy %q", c.Buffer.Policy)
	}
	if c.Buffer.DurationMs <= 0 {
		return fmt.Errorf("config: buffer duration must be positive, got %dms", c.Buffer.DurationMs)
	}
	if c.Buffer.MinMs < 0 {
		return fmt.Errorf("config: buffer minimum cannot be negative, got %dms", c.Buffer.MinMs)
	}
	switch c.Engine.Backend {
	case "whisper":
		if c.Engine.ModelPath == "" {
			return fmt.Errorf("config: whisper backend needs a model path")
		}
	case "scripted":
	default:
		return fmt.Errorf("config: unknown engine backend %q", c.Engine.Backend)
	}
	if c.Engine.Language == "" {
		return fmt.Errorf("config: language cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka enabled without brokers")
	}
	return nil
}

// ChunkSamples is the mono sample count of one stdin read.
func (c *Config) ChunkSamples() int {
	return c.Input.SampleRateHz * c.Input.ChunkMs / 1000
}

// BufferCapacity is the rolling window capacity in samples.
func (c *Config) BufferCapacity() int {
	return c.Input.SampleRateHz * c.Buffer.DurationMs / 1000
}

// MinWindowSamples is the zero-pad floor for engine calls.
func (c *Config) MinWindowSamples() int {
	return c.Input.SampleRateHz * c.Buffer.MinMs / 1000
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultStrings(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
