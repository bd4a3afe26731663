package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pipeline.ChunkChars != 4500 {
		t.Fatalf("expected default chunk budget 4500, got %d", cfg.Pipeline.ChunkChars)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Pipeline.Workers)
	}
	if cfg.Synthesis.Voice != "en-US-Wavenet-D" || cfg.Synthesis.Language != "en-US" {
		t.Fatalf("unexpected default voice config: %+v", cfg.Synthesis)
	}
	if cfg.Audio.SampleRate != 24000 || cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected default audio format: %+v", cfg.Audio)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NARRATE_PIPELINE_CHUNK_CHARS", "1200")
	t.Setenv("NARRATE_PIPELINE_WORKERS", "4")
	t.Setenv("NARRATE_SYNTHESIS_MODE", "mock")
	t.Setenv("NARRATE_SYNTHESIS_VOICE", "en-GB-Wavenet-B")
	t.Setenv("NARRATE_SYNTHESIS_LANGUAGE", "en-GB")
	t.Setenv("NARRATE_SYNTHESIS_TIMEOUT_MS", "15000")
	t.Setenv("NARRATE_SYNTHESIS_CREDENTIALS_FILE", "/tmp/creds.json")
	t.Setenv("NARRATE_AUDIO_FFMPEG", "/usr/local/bin/ffmpeg")
	t.Setenv("NARRATE_AUDIO_SAMPLE_RATE", "44100")
	t.Setenv("NARRATE_AUDIO_CHANNELS", "2")
	t.Setenv("NARRATE_AUDIO_BITRATE_KBPS", "192")
	t.Setenv("NARRATE_TELEMETRY_LOG_LEVEL", "debug")
	t.Setenv("NARRATE_TELEMETRY_PROMETHEUS_BIND", ":9091")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Pipeline.ChunkChars != 1200 {
		t.Fatalf("expected chunk budget 1200, got %d", cfg.Pipeline.ChunkChars)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Synthesis.Mode != "mock" {
		t.Fatalf("expected mode override, got %q", cfg.Synthesis.Mode)
	}
	if cfg.Synthesis.Voice != "en-GB-Wavenet-B" || cfg.Synthesis.Language != "en-GB" {
		t.Fatalf("expected voice overrides, got %+v", cfg.Synthesis)
	}
	if cfg.Synthesis.TimeoutMS != 15000 {
		t.Fatalf("expected timeout override, got %d", cfg.Synthesis.TimeoutMS)
	}
	if cfg.Synthesis.CredentialsFile != "/tmp/creds.json" {
		t.Fatalf("expected credentials file override")
	}
	if cfg.Audio.FFmpeg != "/usr/local/bin/ffmpeg" {
		t.Fatalf("expected ffmpeg override, got %q", cfg.Audio.FFmpeg)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.Channels != 2 {
		t.Fatalf("expected audio format overrides, got %+v", cfg.Audio)
	}
	if cfg.Audio.BitrateKbps != 192 {
		t.Fatalf("expected bitrate override, got %d", cfg.Audio.BitrateKbps)
	}
	if cfg.Telemetry.LogLevel != "debug" {
		t.Fatalf("expected log level override")
	}
	if cfg.Telemetry.PrometheusBind != ":9091" {
		t.Fatalf("expected prometheus bind override")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "narrate.yaml")
	doc := []byte(`pipeline:
  chunk_chars: 2000
synthesis:
  voice: de-DE-Wavenet-C
  language: de-DE
audio:
  bitrate_kbps: 96
`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pipeline.ChunkChars != 2000 {
		t.Fatalf("expected file override for chunk budget, got %d", cfg.Pipeline.ChunkChars)
	}
	if cfg.Synthesis.Voice != "de-DE-Wavenet-C" || cfg.Synthesis.Language != "de-DE" {
		t.Fatalf("expected file voice overrides, got %+v", cfg.Synthesis)
	}
	if cfg.Audio.BitrateKbps != 96 {
		t.Fatalf("expected file bitrate override, got %d", cfg.Audio.BitrateKbps)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Fatalf("fields absent from the file should keep defaults, got %d workers", cfg.Pipeline.Workers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk budget", func(c *Config) { c.Pipeline.ChunkChars = 0 }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"unknown mode", func(c *Config) { c.Synthesis.Mode = "espeak" }},
		{"empty voice", func(c *Config) { c.Synthesis.Voice = "" }},
		{"empty language", func(c *Config) { c.Synthesis.Language = "" }},
		{"zero timeout", func(c *Config) { c.Synthesis.TimeoutMS = 0 }},
		{"empty ffmpeg", func(c *Config) { c.Audio.FFmpeg = "" }},
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"three channels", func(c *Config) { c.Audio.Channels = 3 }},
		{"zero bitrate", func(c *Config) { c.Audio.BitrateKbps = 0 }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
