package audio

import (
	"fmt"
	"time"

	gaudio "github.com/go-audio/audio"
)

// Track is the accumulating output audio: interleaved 16-bit PCM samples in
// a fixed format. It is append-only during a run, has exactly one writer,
// and is exported once at the end.
type Track struct {
	format  *gaudio.Format
	samples []int
}

func NewTrack(sampleRate, channels int) *Track {
	return &Track{
		format: &gaudio.Format{NumChannels: channels, SampleRate: sampleRate},
	}
}

// Append adds decoded samples to the end of the track. The buffer's format
// must match the track's; the decoder normalizes blobs before they get here.
func (t *Track) Append(buf *gaudio.IntBuffer) error {
	if buf == nil || len(buf.Data) == 0 {
		return nil
	}
	if buf.Format == nil {
		return fmt.Errorf("append: buffer has no format")
	}
	if buf.Format.SampleRate != t.format.SampleRate || buf.Format.NumChannels != t.format.NumChannels {
		return fmt.Errorf("append: format mismatch: %dHz/%dch buffer on %dHz/%dch track",
			buf.Format.SampleRate, buf.Format.NumChannels, t.format.SampleRate, t.format.NumChannels)
	}
	t.samples = append(t.samples, buf.Data...)
	return nil
}

// Buffer returns the track contents as a go-audio buffer for encoding.
func (t *Track) Buffer() *gaudio.IntBuffer {
	return &gaudio.IntBuffer{
		Format:         t.format,
		Data:           t.samples,
		SourceBitDepth: 16,
	}
}

func (t *Track) SampleRate() int {
	return t.format.SampleRate
}

func (t *Track) Channels() int {
	return t.format.NumChannels
}

// Len returns the number of interleaved samples accumulated so far.
func (t *Track) Len() int {
	return len(t.samples)
}

func (t *Track) Empty() bool {
	return len(t.samples) == 0
}

// Duration returns the playing time of the accumulated audio.
func (t *Track) Duration() time.Duration {
	frames := len(t.samples) / t.format.NumChannels
	return time.Duration(float64(frames) / float64(t.format.SampleRate) * float64(time.Second))
}
