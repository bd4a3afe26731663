package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type PipelineConfig struct {
	ChunkChars int `yaml:"chunk_chars"`
	Workers    int `yaml:"workers"`
}

type SynthesisConfig struct {
	Mode            string `yaml:"mode"` // google, mock
	Voice           string `yaml:"voice"`
	Language        string `yaml:"language"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	CredentialsFile string `yaml:"credentials_file"`
}

type AudioConfig struct {
	FFmpeg      string `yaml:"ffmpeg"`
	SampleRate  int    `yaml:"sample_rate"`
	Channels    int    `yaml:"channels"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
}

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Audio     AudioConfig     `yaml:"audio"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

func Default() Config {
	return Config{
		Pipeline: PipelineConfig{
			ChunkChars: 4500,
			Workers:    1,
		},
		Synthesis: SynthesisConfig{
			Mode:      "google",
			Voice:     "en-US-Wavenet-D",
			Language:  "en-US",
			TimeoutMS: 60000,
		},
		Audio: AudioConfig{
			FFmpeg:      "ffmpeg",
			SampleRate:  24000,
			Channels:    1,
			BitrateKbps: 128,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: "",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideInt(&cfg.Pipeline.ChunkChars, "NARRATE_PIPELINE_CHUNK_CHARS")
	overrideInt(&cfg.Pipeline.Workers, "NARRATE_PIPELINE_WORKERS")
	overrideString(&cfg.Synthesis.Mode, "NARRATE_SYNTHESIS_MODE")
	overrideString(&cfg.Synthesis.Voice, "NARRATE_SYNTHESIS_VOICE")
	overrideString(&cfg.Synthesis.Language, "NARRATE_SYNTHESIS_LANGUAGE")
	overrideInt(&cfg.Synthesis.TimeoutMS, "NARRATE_SYNTHESIS_TIMEOUT_MS")
	overrideString(&cfg.Synthesis.CredentialsFile, "NARRATE_SYNTHESIS_CREDENTIALS_FILE")
	overrideString(&cfg.Audio.FFmpeg, "NARRATE_AUDIO_FFMPEG")
	overrideInt(&cfg.Audio.SampleRate, "NARRATE_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "NARRATE_AUDIO_CHANNELS")
	overrideInt(&cfg.Audio.BitrateKbps, "NARRATE_AUDIO_BITRATE_KBPS")
	overrideString(&cfg.Telemetry.LogLevel, "NARRATE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "NARRATE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "NARRATE_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "NARRATE_TELEMETRY_PROMETHEUS_BIND")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

// Validate reports the first invalid field. Load calls it after file and
// environment overrides; callers that mutate the config afterwards, for
// example from CLI flags, should call it again.
func Validate(cfg Config) error {
	if cfg.Pipeline.ChunkChars <= 0 {
		return errors.New("pipeline.chunk_chars must be positive")
	}
	if cfg.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be >= 1")
	}
	switch cfg.Synthesis.Mode {
	case "google", "mock":
	default:
		return errors.New("synthesis.mode must be one of google|mock")
	}
	if cfg.Synthesis.Voice == "" {
		return errors.New("synthesis.voice must not be empty")
	}
	if cfg.Synthesis.Language == "" {
		return errors.New("synthesis.language must not be empty")
	}
	if cfg.Synthesis.TimeoutMS <= 0 {
		return errors.New("synthesis.timeout_ms must be positive")
	}
	if cfg.Audio.FFmpeg == "" {
		return errors.New("audio.ffmpeg must not be empty")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	if cfg.Audio.BitrateKbps <= 0 {
		return errors.New("audio.bitrate_kbps must be positive")
	}
	return nil
}
