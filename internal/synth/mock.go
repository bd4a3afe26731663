package synth

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"
	"unicode/utf8"
)

// MockSynthesizer renders silence instead of calling a remote service, so
// the rest of the pipeline stays exercisable offline. The blobs it returns
// are valid PCM16 WAV files whose duration scales with chunk length.
type MockSynthesizer struct {
	sampleRate int
	channels   int
	delay      time.Duration
}

func NewMockSynthesizer(sampleRate, channels int) *MockSynthesizer {
	return &MockSynthesizer{
		sampleRate: sampleRate,
		channels:   channels,
		delay:      10 * time.Millisecond,
	}
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay):
	}

	// Roughly 15 characters per spoken second, capped to keep dry runs short.
	seconds := float64(utf8.RuneCountInString(text)) / 15.0
	if seconds > 2.0 {
		seconds = 2.0
	}
	if seconds < 0.05 {
		seconds = 0.05
	}
	frames := int(seconds * float64(m.sampleRate))
	return silentWAV(m.sampleRate, m.channels, frames), nil
}

func silentWAV(sampleRate, channels, frames int) []byte {
	dataLen := frames * channels * 2
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}
