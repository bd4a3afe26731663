package audio

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/go-audio/wav"

	"github.com/narratehq/narrate/internal/config"
)

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{
		FFmpeg:      "ffmpeg",
		SampleRate:  24000,
		Channels:    1,
		BitrateKbps: 128,
	}
}

func TestNewFFmpegCodecParsesCommand(t *testing.T) {
	cfg := testAudioConfig()
	cfg.FFmpeg = `/usr/local/bin/ffmpeg -threads 2`
	c, err := NewFFmpegCodec(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/usr/local/bin/ffmpeg", "-threads", "2"}
	if !reflect.DeepEqual(c.cmd, want) {
		t.Fatalf("expected %v, got %v", want, c.cmd)
	}
}

func TestNewFFmpegCodecRejectsBadCommand(t *testing.T) {
	cfg := testAudioConfig()
	cfg.FFmpeg = `ffmpeg "unterminated`
	if _, err := NewFFmpegCodec(cfg); err == nil {
		t.Fatal("expected parse error")
	}
	cfg.FFmpeg = "   "
	if _, err := NewFFmpegCodec(cfg); err == nil {
		t.Fatal("expected error for blank command")
	}
}

func TestDecodeArgsNormalizeToTrackFormat(t *testing.T) {
	c, err := NewFFmpegCodec(testAudioConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := strings.Join(c.decodeArgs(), " ")
	for _, want := range []string{"-i pipe:0", "-f s16le", "-acodec pcm_s16le", "-ar 24000", "-ac 1", "pipe:1"} {
		if !strings.Contains(args, want) {
			t.Fatalf("decode args missing %q: %s", want, args)
		}
	}
}

func TestExportArgsEncodeMP3(t *testing.T) {
	c, err := NewFFmpegCodec(testAudioConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := c.exportArgs("/tmp/staged.wav", "/tmp/book.mp3")
	joined := strings.Join(args, " ")
	for _, want := range []string{"-y", "-i /tmp/staged.wav", "-codec:a libmp3lame", "-b:a 128k"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("export args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "/tmp/book.mp3" {
		t.Fatalf("destination must be the last argument, got %v", args)
	}
}

func TestDecodeRejectsEmptyBlob(t *testing.T) {
	c, err := NewFFmpegCodec(testAudioConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Decode(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty blob")
	}
}

func TestPCMToSamples(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80, 0xFF, 0x7F}
	got, err := pcmToSamples(pcm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, -1, -32768, 32767}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := pcmToSamples([]byte{0x01}); err == nil {
		t.Fatal("expected error for unaligned pcm")
	}
}

func TestWriteTrackWAVRoundTrip(t *testing.T) {
	track := NewTrack(24000, 1)
	samples := []int{0, 1000, -1000, 32767, -32768}
	if err := track.Append(monoBuffer(24000, samples)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "track.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := writeTrackWAV(f, track); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	if int(dec.SampleRate) != 24000 || int(dec.NumChans) != 1 {
		t.Fatalf("unexpected wav format: %dHz/%dch", dec.SampleRate, dec.NumChans)
	}
	if !reflect.DeepEqual(buf.Data, samples) {
		t.Fatalf("expected %v, got %v", samples, buf.Data)
	}
}

func TestWriteTrackWAVEmptyTrack(t *testing.T) {
	track := NewTrack(24000, 1)

	path := filepath.Join(t.TempDir(), "empty.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := writeTrackWAV(f, track); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		t.Fatal("empty track must still stage as a valid wav file")
	}
}
