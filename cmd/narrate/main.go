package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/narratehq/narrate/internal/audio"
	"github.com/narratehq/narrate/internal/config"
	"github.com/narratehq/narrate/internal/extract"
	"github.com/narratehq/narrate/internal/pipeline"
	"github.com/narratehq/narrate/internal/synth"
	"github.com/narratehq/narrate/internal/telemetry"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		voiceName   string
		language    string
		chunkChars  int
		workers     int
		listVoices  bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "narrate.yaml", "Path to configuration file")
	flag.StringVar(&voiceName, "voice", "", "Voice name for synthesis")
	flag.StringVar(&language, "lang", "", "Voice language code")
	flag.IntVar(&chunkChars, "chunk-chars", 0, "Maximum characters per synthesis request")
	flag.IntVar(&workers, "workers", 0, "Concurrent synthesis requests")
	flag.BoolVar(&listVoices, "list-voices", false, "List available voices and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	// A .env file is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	// The default config file is optional, an explicitly requested one is not.
	if !setFlags["config"] {
		if _, err := os.Stat(configPath); err != nil {
			configPath = ""
		}
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if setFlags["voice"] {
		cfg.Synthesis.Voice = voiceName
	}
	if setFlags["lang"] {
		cfg.Synthesis.Language = language
	}
	if setFlags["chunk-chars"] {
		cfg.Pipeline.ChunkChars = chunkChars
	}
	if setFlags["workers"] {
		cfg.Pipeline.Workers = workers
	}
	if err := config.Validate(cfg); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.Telemetry.LogLevel)}))

	if !listVoices && flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if listVoices {
		if err := printVoices(ctx, cfg, os.Stdout); err != nil {
			logger.Error("failed to list voices", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	telemetryShutdown, err := telemetry.Setup(ctx, cfg.Telemetry, version, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer flushTelemetry(telemetryShutdown, logger)

	synthesizer, err := newSynthesizer(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize synthesizer", slog.String("error", err.Error()))
		flushTelemetry(telemetryShutdown, logger)
		os.Exit(1)
	}
	codec, err := audio.NewFFmpegCodec(cfg.Audio)
	if err != nil {
		logger.Error("failed to initialize audio codec", slog.String("error", err.Error()))
		flushTelemetry(telemetryShutdown, logger)
		os.Exit(1)
	}

	driver := pipeline.New(cfg, extract.NewPDFSource(), synthesizer, codec, codec, logger)

	res, err := driver.Run(ctx, flag.Arg(0), flag.Arg(1))
	if err != nil {
		reportFailure(logger, err)
		flushTelemetry(telemetryShutdown, logger)
		os.Exit(1)
	}

	logger.Info("audiobook written",
		slog.String("output", res.Output),
		slog.Int("chunks", res.Chunks),
		slog.Duration("audio_duration", res.Duration))
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: narrate [flags] <input.pdf> <output.mp3>\n\nFlags:\n")
	flag.PrintDefaults()
}

func newSynthesizer(ctx context.Context, cfg config.Config) (synth.Synthesizer, error) {
	if cfg.Synthesis.Mode == "mock" {
		return synth.NewMockSynthesizer(cfg.Audio.SampleRate, cfg.Audio.Channels), nil
	}
	return synth.NewGoogleSynthesizer(ctx, cfg.Synthesis)
}

func printVoices(ctx context.Context, cfg config.Config, out io.Writer) error {
	if cfg.Synthesis.Mode != "google" {
		return fmt.Errorf("voice listing requires synthesis mode %q, configured mode is %q", "google", cfg.Synthesis.Mode)
	}
	s, err := synth.NewGoogleSynthesizer(ctx, cfg.Synthesis)
	if err != nil {
		return err
	}
	voices, err := s.ListVoices(ctx, cfg.Synthesis.Language)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLANGUAGES\tGENDER\tSAMPLE RATE")
	for _, v := range voices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", v.Name, strings.Join(v.Languages, ","), v.Gender, v.SampleRate)
	}
	return w.Flush()
}

// reportFailure names the pipeline stage that broke the run.
func reportFailure(logger *slog.Logger, err error) {
	var unreadable *extract.UnreadableError
	var synthErr *pipeline.SynthesisError
	var decodeErr *pipeline.DecodeError
	var exportErr *pipeline.ExportError
	switch {
	case errors.As(err, &unreadable):
		logger.Error("document extraction failed",
			slog.String("path", unreadable.Path),
			slog.String("error", err.Error()))
	case errors.As(err, &synthErr):
		logger.Error("synthesis failed",
			slog.Int("chunk", synthErr.Chunk),
			slog.String("error", err.Error()))
	case errors.As(err, &decodeErr):
		logger.Error("audio decode failed",
			slog.Int("chunk", decodeErr.Chunk),
			slog.String("error", err.Error()))
	case errors.As(err, &exportErr):
		logger.Error("export failed",
			slog.String("path", exportErr.Path),
			slog.String("error", err.Error()))
	default:
		logger.Error("run failed", slog.String("error", err.Error()))
	}
}

func flushTelemetry(shutdown func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
