package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"

	"github.com/narratehq/narrate/internal/config"
)

// Codec bridges encoded audio and the in-memory Track through an external
// ffmpeg process. Synthesizer blobs are decoded to raw PCM over
// stdin/stdout; the finished track is staged as a temporary WAV before the
// MP3 encode.
type Codec struct {
	cmd        []string
	sampleRate int
	channels   int
	bitrate    int
}

func NewFFmpegCodec(cfg config.AudioConfig) (*Codec, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("ffmpeg command empty")
	}
	return &Codec{
		cmd:        args,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		bitrate:    cfg.BitrateKbps,
	}, nil
}

// Decode converts one synthesizer blob to PCM in the track's format. ffmpeg
// normalizes sample rate and channel count, so blobs from different voices
// still append cleanly.
func (c *Codec) Decode(ctx context.Context, blob []byte) (*gaudio.IntBuffer, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty audio blob")
	}

	args := append(append([]string{}, c.cmd[1:]...), c.decodeArgs()...)
	cmd := exec.CommandContext(ctx, c.cmd[0], args...)
	cmd.Stdin = bytes.NewReader(blob)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w: %s", err, stderr.String())
	}

	samples, err := pcmToSamples(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	return &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: c.channels, SampleRate: c.sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}, nil
}

func (c *Codec) decodeArgs() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(c.sampleRate),
		"-ac", strconv.Itoa(c.channels),
		"pipe:1",
	}
}

// Export writes the track to path as MP3, overwriting an existing file.
func (c *Codec) Export(ctx context.Context, track *Track, path string) error {
	tmpDir := os.TempDir()
	tmp, err := os.CreateTemp(tmpDir, "narrate_track_*.wav")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := writeTrackWAV(tmp, track); err != nil {
		return err
	}

	args := append(append([]string{}, c.cmd[1:]...), c.exportArgs(tmp.Name(), path)...)
	cmd := exec.CommandContext(ctx, c.cmd[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg export failed: %w: %s", err, stderr.String())
	}
	return nil
}

func (c *Codec) exportArgs(wavPath, outPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", wavPath,
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", c.bitrate),
		outPath,
	}
}

func pcmToSamples(pcm []byte) ([]int, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("decoded pcm not aligned")
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return samples, nil
}

func writeTrackWAV(file *os.File, track *Track) error {
	enc := wav.NewEncoder(file, track.SampleRate(), 16, track.Channels(), 1)
	if err := enc.Write(track.Buffer()); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
