package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	gaudio "github.com/go-audio/audio"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/narratehq/narrate/internal/audio"
	"github.com/narratehq/narrate/internal/chunk"
	"github.com/narratehq/narrate/internal/config"
	"github.com/narratehq/narrate/internal/synth"
)

// Extractor produces a document's full narratable text.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Decoder turns one synthesizer blob into PCM in the track's format.
type Decoder interface {
	Decode(ctx context.Context, blob []byte) (*gaudio.IntBuffer, error)
}

// Exporter writes the finished track to its destination.
type Exporter interface {
	Export(ctx context.Context, track *audio.Track, path string) error
}

// Result summarizes a completed run.
type Result struct {
	RunID    string
	Chunks   int
	Duration time.Duration
	Output   string
}

// Driver sequences extraction, chunking, synthesis, assembly, and export.
// The first stage failure aborts the run; nothing is written to the output
// path unless every chunk synthesized and decoded cleanly.
type Driver struct {
	cfg       config.Config
	extractor Extractor
	synth     synth.Synthesizer
	decoder   Decoder
	exporter  Exporter
	log       *slog.Logger

	meter      metric.Meter
	chunksDone metric.Int64Counter
	synthSecs  metric.Float64Histogram
	audioBytes metric.Int64Counter
}

func New(cfg config.Config, extractor Extractor, synthesizer synth.Synthesizer, decoder Decoder, exporter Exporter, logger *slog.Logger) *Driver {
	d := &Driver{
		cfg:       cfg,
		extractor: extractor,
		synth:     synthesizer,
		decoder:   decoder,
		exporter:  exporter,
		log:       logger.With(slog.String("component", "pipeline")),
		meter:     otel.Meter("github.com/narratehq/narrate/internal/pipeline"),
	}
	if err := d.initMetrics(); err != nil {
		d.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}
	return d
}

func (d *Driver) initMetrics() error {
	var err error
	d.chunksDone, err = d.meter.Int64Counter("narrate.synthesis.chunks",
		metric.WithDescription("Chunks synthesized"))
	if err != nil {
		return err
	}
	d.synthSecs, err = d.meter.Float64Histogram("narrate.synthesis.duration_seconds",
		metric.WithDescription("Wall time of individual synthesis calls"))
	if err != nil {
		return err
	}
	d.audioBytes, err = d.meter.Int64Counter("narrate.synthesis.audio_bytes",
		metric.WithDescription("Encoded audio bytes returned by the synthesizer"))
	return err
}

// Run converts the document at inputPath into a narrated audio file at
// outputPath.
func (d *Driver) Run(ctx context.Context, inputPath, outputPath string) (Result, error) {
	runID := uuid.NewString()
	log := d.log.With(slog.String("run_id", runID))

	log.Info("extracting text", slog.String("input", inputPath))
	text, err := d.extractor.ExtractText(ctx, inputPath)
	if err != nil {
		return Result{}, err
	}

	chunks := chunk.Chunks(text, d.cfg.Pipeline.ChunkChars)
	log.Info("text chunked",
		slog.Int("chunks", len(chunks)),
		slog.Int("chars", utf8.RuneCountInString(text)),
		slog.Int("budget", d.cfg.Pipeline.ChunkChars))
	if len(chunks) == 0 {
		log.Warn("document has no narratable text", slog.String("input", inputPath))
	}

	voice := synth.Voice{Name: d.cfg.Synthesis.Voice, Language: d.cfg.Synthesis.Language}
	track := audio.NewTrack(d.cfg.Audio.SampleRate, d.cfg.Audio.Channels)

	if d.cfg.Pipeline.Workers > 1 && len(chunks) > 1 {
		err = d.assembleParallel(ctx, log, chunks, voice, track)
	} else {
		err = d.assembleSequential(ctx, log, chunks, voice, track)
	}
	if err != nil {
		return Result{}, err
	}

	log.Info("exporting audiobook",
		slog.String("output", outputPath),
		slog.Duration("audio_duration", track.Duration()))
	if err := d.exporter.Export(ctx, track, outputPath); err != nil {
		return Result{}, &ExportError{Path: outputPath, Err: err}
	}

	log.Info("run complete",
		slog.Int("chunks", len(chunks)),
		slog.Duration("audio_duration", track.Duration()),
		slog.String("output", outputPath))
	return Result{
		RunID:    runID,
		Chunks:   len(chunks),
		Duration: track.Duration(),
		Output:   outputPath,
	}, nil
}

func (d *Driver) assembleSequential(ctx context.Context, log *slog.Logger, chunks []string, voice synth.Voice, track *audio.Track) error {
	for i, text := range chunks {
		blob, err := d.synthesizeChunk(ctx, log, i, len(chunks), text, voice)
		if err != nil {
			return err
		}
		if err := d.appendBlob(ctx, track, i, blob); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) assembleParallel(ctx context.Context, log *slog.Logger, chunks []string, voice synth.Voice, track *audio.Track) error {
	blobs := make([][]byte, len(chunks))
	errs := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Pipeline.Workers)
	for i, text := range chunks {
		g.Go(func() error {
			blob, err := d.synthesizeChunk(gctx, log, i, len(chunks), text, voice)
			if err != nil {
				errs[i] = err
				return err
			}
			blobs[i] = blob
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return firstChunkError(errs, err)
	}

	// Decode and append strictly in chunk order. Synthesis completion
	// order does not matter; the indexed blobs slice carries the order.
	for i, blob := range blobs {
		if err := d.appendBlob(ctx, track, i, blob); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) synthesizeChunk(ctx context.Context, log *slog.Logger, index, total int, text string, voice synth.Voice) ([]byte, error) {
	log.Info("synthesizing chunk",
		slog.Int("chunk", index+1),
		slog.Int("total", total),
		slog.Int("chars", utf8.RuneCountInString(text)))

	start := time.Now()
	blob, err := d.synth.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, &SynthesisError{Chunk: index + 1, Err: err}
	}

	attrs := metric.WithAttributes(attribute.String("voice", voice.Name))
	if d.chunksDone != nil {
		d.chunksDone.Add(ctx, 1, attrs)
	}
	if d.synthSecs != nil {
		d.synthSecs.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	if d.audioBytes != nil {
		d.audioBytes.Add(ctx, int64(len(blob)), attrs)
	}
	return blob, nil
}

func (d *Driver) appendBlob(ctx context.Context, track *audio.Track, index int, blob []byte) error {
	buf, err := d.decoder.Decode(ctx, blob)
	if err != nil {
		return &DecodeError{Chunk: index + 1, Err: err}
	}
	if err := track.Append(buf); err != nil {
		return &DecodeError{Chunk: index + 1, Err: err}
	}
	return nil
}

// firstChunkError picks the lowest-index failure out of a parallel run.
// Errors caused by sibling cancellation are skipped when a chunk failed on
// its own, so the reported chunk is the one that actually broke the run.
func firstChunkError(errs []error, fallback error) error {
	var firstCancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			if firstCancelled == nil {
				firstCancelled = err
			}
			continue
		}
		return err
	}
	if firstCancelled != nil {
		return firstCancelled
	}
	return fallback
}
