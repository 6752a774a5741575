package config

import (
	"os"
	"path/filepath"
	"testing"
)

var allEnvVars = []string{
	"SERVICE_PRINCIPAL",
	"INPUT_SAMPLE_RATE_HZ", "INPUT_CHANNELS", "INPUT_CHUNK_MS", "INPUT_SAVE_AUDIO",
	"VAD_THRESHOLD", "VAD_FREQ_CUTOFF_HZ", "VAD_WINDOW_MS",
	"BUFFER_POLICY", "BUFFER_DURATION_MS", "BUFFER_MIN_MS",
	"ENGINE_BACKEND", "ENGINE_MODEL_PATH", "ENGINE_LANGUAGE", "ENGINE_TRANSLATE",
	"ENGINE_THREADS", "ENGINE_MAX_TOKENS", "ENGINE_BEAM_SIZE", "ENGINE_TOKEN_TIMESTAMPS",
	"OUTPUT_FULL_DETAIL",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_PARTIAL", "KAFKA_TOPIC_FINAL", "KAFKA_PRINCIPAL",
	"LOG_LEVEL", "LOG_FORMAT", "HTTP_ADDR",
}

func clearEnv() {
	for _, v := range allEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "svc-speech-transcriber" {
		t.Errorf("expected default principal 'svc-speech-transcriber', got %s", cfg.Service.Principal)
	}

	// Input defaults
	if cfg.Input.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.Input.SampleRateHz)
	}
	if cfg.Input.Channels != 2 {
		t.Errorf("expected default channels 2, got %d", cfg.Input.Channels)
	}
	if cfg.Input.ChunkMs != 500 {
		t.Errorf("expected default chunk 500ms, got %d", cfg.Input.ChunkMs)
	}
	if cfg.Input.SaveAudio != "" {
		t.Errorf("expected audio capture disabled by default, got %s", cfg.Input.SaveAudio)
	}

	// VAD defaults
	if cfg.VAD.Threshold != 0.2 {
		t.Errorf("expected default vad threshold 0.2, got %v", cfg.VAD.Threshold)
	}
	if cfg.VAD.CutoffHz != 100 {
		t.Errorf("expected default cutoff 100Hz, got %v", cfg.VAD.CutoffHz)
	}
	if cfg.VAD.WindowMs != 250 {
		t.Errorf("expected default vad window 250ms, got %d", cfg.VAD.WindowMs)
	}

	// Buffer defaults
	if cfg.Buffer.Policy != "reset" {
		t.Errorf("expected default policy 'reset', got %s", cfg.Buffer.Policy)
	}
	if cfg.Buffer.DurationMs != 10000 {
		t.Errorf("expected default buffer duration 10000ms, got %d", cfg.Buffer.DurationMs)
	}
	if cfg.Buffer.MinMs != 500 {
		t.Errorf("expected default buffer minimum 500ms, got %d", cfg.Buffer.MinMs)
	}

	// Engine defaults
	if cfg.Engine.Backend != "whisper" {
		t.Errorf("expected default backend 'whisper', got %s", cfg.Engine.Backend)
	}
	if cfg.Engine.ModelPath != "models/ggml-base.en.bin" {
		t.Errorf("expected default model path, got %s", cfg.Engine.ModelPath)
	}
	if cfg.Engine.Language != "en" {
		t.Errorf("expected default language 'en', got %s", cfg.Engine.Language)
	}
	if cfg.Engine.MaxTokens != 32 {
		t.Errorf("expected default max tokens 32, got %d", cfg.Engine.MaxTokens)
	}
	if cfg.Engine.BeamSize != -1 {
		t.Errorf("expected default beam size -1, got %d", cfg.Engine.BeamSize)
	}
	if cfg.Engine.TokenTimestamps != true {
		t.Errorf("expected token timestamps on by default, got %v", cfg.Engine.TokenTimestamps)
	}

	// Output defaults
	if cfg.Output.FullDetail != true {
		t.Errorf("expected full detail on by default, got %v", cfg.Output.FullDetail)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled != false {
		t.Errorf("expected kafka disabled by default, got %v", cfg.Kafka.Enabled)
	}
	if cfg.Kafka.TopicPartial != "transcript.partial" {
		t.Errorf("expected default partial topic 'transcript.partial', got %s", cfg.Kafka.TopicPartial)
	}
	if cfg.Kafka.TopicFinal != "transcript.final" {
		t.Errorf("expected default final topic 'transcript.final', got %s", cfg.Kafka.TopicFinal)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected default log format 'json', got %s", cfg.Observability.LogFormat)
	}
	if cfg.Observability.HTTPAddr != "" {
		t.Errorf("expected admin endpoint disabled by default, got %s", cfg.Observability.HTTPAddr)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("INPUT_CHANNELS", "1")
	os.Setenv("INPUT_CHUNK_MS", "250")
	os.Setenv("INPUT_SAVE_AUDIO", "/tmp/capture.wav")
	os.Setenv("VAD_THRESHOLD", "0.35")
	os.Setenv("VAD_FREQ_CUTOFF_HZ", "200")
	os.Setenv("VAD_WINDOW_MS", "100")
	os.Setenv("BUFFER_POLICY", "sliding")
	os.Setenv("BUFFER_DURATION_MS", "20000")
	os.Setenv("ENGINE_BACKEND", "scripted")
	os.Setenv("ENGINE_LANGUAGE", "de")
	os.Setenv("ENGINE_TRANSLATE", "true")
	os.Setenv("ENGINE_THREADS", "8")
	os.Setenv("ENGINE_BEAM_SIZE", "5")
	os.Setenv("OUTPUT_FULL_DETAIL", "false")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	os.Setenv("LOG_LEVEL", "debug")

	defer clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Input.Channels != 1 {
		t.Errorf("expected channels 1, got %d", cfg.Input.Channels)
	}
	if cfg.Input.ChunkMs != 250 {
		t.Errorf("expected chunk 250ms, got %d", cfg.Input.ChunkMs)
	}
	if cfg.Input.SaveAudio != "/tmp/capture.wav" {
		t.Errorf("expected capture path '/tmp/capture.wav', got %s", cfg.Input.SaveAudio)
	}
	if cfg.VAD.Threshold != 0.35 {
		t.Errorf("expected vad threshold 0.35, got %v", cfg.VAD.Threshold)
	}
	if cfg.VAD.CutoffHz != 200 {
		t.Errorf("expected cutoff 200Hz, got %v", cfg.VAD.CutoffHz)
	}
	if cfg.VAD.WindowMs != 100 {
		t.Errorf("expected vad window 100ms, got %d", cfg.VAD.WindowMs)
	}
	if cfg.Buffer.Policy != "sliding" {
		t.Errorf("expected policy 'sliding', got %s", cfg.Buffer.Policy)
	}
	if cfg.Buffer.DurationMs != 20000 {
		t.Errorf("expected buffer duration 20000ms, got %d", cfg.Buffer.DurationMs)
	}
	if cfg.Engine.Backend != "scripted" {
		t.Errorf("expected backend 'scripted', got %s", cfg.Engine.Backend)
	}
	if cfg.Engine.Language != "de" {
		t.Errorf("expected language 'de', got %s", cfg.Engine.Language)
	}
	if cfg.Engine.Translate != true {
		t.Errorf("expected translate true, got %v", cfg.Engine.Translate)
	}
	if cfg.Engine.Threads != 8 {
		t.Errorf("expected threads 8, got %d", cfg.Engine.Threads)
	}
	if cfg.Engine.BeamSize != 5 {
		t.Errorf("expected beam size 5, got %d", cfg.Engine.BeamSize)
	}
	if cfg.Output.FullDetail != false {
		t.Errorf("expected full detail false, got %v", cfg.Output.FullDetail)
	}
	if cfg.Kafka.Enabled != true {
		t.Errorf("expected kafka enabled, got %v", cfg.Kafka.Enabled)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker-1:9092" || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("INPUT_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("INPUT_CHUNK_MS", "half-a-second")
	os.Setenv("VAD_THRESHOLD", "loud")
	os.Setenv("ENGINE_TRANSLATE", "invalid")
	os.Setenv("ENGINE_MAX_TOKENS", "invalid")

	defer clearEnv()

	cfg := Load()

	if cfg.Input.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Input.SampleRateHz)
	}
	if cfg.Input.ChunkMs != 500 {
		t.Errorf("expected default chunk on invalid input, got %d", cfg.Input.ChunkMs)
	}
	if cfg.VAD.Threshold != 0.2 {
		t.Errorf("expected default vad threshold on invalid input, got %v", cfg.VAD.Threshold)
	}
	if cfg.Engine.Translate != false {
		t.Errorf("expected default translate on invalid input, got %v", cfg.Engine.Translate)
	}
	if cfg.Engine.MaxTokens != 32 {
		t.Errorf("expected default max tokens on invalid input, got %d", cfg.Engine.MaxTokens)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer clearEnv()

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestLoadFile_OverlaysEnvironment(t *testing.T) {
	clearEnv()
	os.Setenv("ENGINE_LANGUAGE", "de")
	defer clearEnv()

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
input:
  channels: 1
buffer:
  policy: sliding
  durationMs: 30000
kafka:
  enabled: true
  brokers: ["broker-a:9092"]
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Input.Channels != 1 {
		t.Errorf("expected channels 1 from file, got %d", cfg.Input.Channels)
	}
	if cfg.Buffer.Policy != "sliding" {
		t.Errorf("expected policy 'sliding' from file, got %s", cfg.Buffer.Policy)
	}
	if cfg.Buffer.DurationMs != 30000 {
		t.Errorf("expected buffer duration 30000ms from file, got %d", cfg.Buffer.DurationMs)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "broker-a:9092" {
		t.Errorf("expected kafka settings from file, got %+v", cfg.Kafka)
	}

	// Values the file does not mention keep their environment values.
	if cfg.Engine.Language != "de" {
		t.Errorf("expected language 'de' from environment, got %s", cfg.Engine.Language)
	}
	if cfg.Input.ChunkMs != 500 {
		t.Errorf("expected default chunk to survive overlay, got %d", cfg.Input.ChunkMs)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"scripted backend without model", func(c *Config) {
			c.Engine.Backend = "scripted"
			c.Engine.ModelPath = ""
		}, false},
		{"unsupported sample rate", func(c *Config) { c.Input.SampleRateHz = 8000 }, true},
		{"bad channel count", func(c *Config) { c.Input.Channels = 3 }, true},
		{"zero chunk", func(c *Config) { c.Input.ChunkMs = 0 }, true},
		{"zero vad window", func(c *Config) { c.VAD.WindowMs = 0 }, true},
		{"unknown policy", func(c *Config) { c.Buffer.Policy = "circular" }, true},
		{"zero buffer duration", func(c *Config) { c.Buffer.DurationMs = 0 }, true},
		{"negative buffer minimum", func(c *Config) { c.Buffer.MinMs = -1 }, true},
		{"unknown backend", func(c *Config) { c.Engine.Backend = "parrot" }, true},
		{"whisper without model", func(c *Config) { c.Engine.ModelPath = "" }, true},
		{"empty language", func(c *Config) { c.Engine.Language = "" }, true},
		{"kafka enabled without brokers", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
		})
	}
}

func TestDerivedSampleCounts(t *testing.T) {
	clearEnv()
	cfg := Load()

	if got := cfg.ChunkSamples(); got != 8000 {
		t.Errorf("ChunkSamples() = %d, want 8000", got)
	}
	if got := cfg.BufferCapacity(); got != 160000 {
		t.Errorf("BufferCapacity() = %d, want 160000", got)
	}
	if got := cfg.MinWindowSamples(); got != 8000 {
		t.Errorf("MinWindowSamples() = %d, want 8000", got)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
