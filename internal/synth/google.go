package synth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/narratehq/narrate/internal/config"
)

const credentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// GoogleSynthesizer produces MP3 audio through the Google Cloud
// Text-to-Speech REST API. One network call per chunk; no caching, batching,
// or retries.
type GoogleSynthesizer struct {
	svc     *texttospeech.Service
	timeout time.Duration
}

// NewGoogleSynthesizer builds the client from a service-account credentials
// file, taken from synthesis.credentials_file or the
// GOOGLE_APPLICATION_CREDENTIALS environment variable. Missing or unreadable
// credentials abort startup.
func NewGoogleSynthesizer(ctx context.Context, cfg config.SynthesisConfig) (*GoogleSynthesizer, error) {
	path := cfg.CredentialsFile
	if path == "" {
		path = os.Getenv(credentialsEnv)
	}
	if path == "" {
		return nil, fmt.Errorf("synthesis credentials not configured: set %s or synthesis.credentials_file", credentialsEnv)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, texttospeech.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := texttospeech.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create texttospeech service: %w", err)
	}
	return &GoogleSynthesizer{
		svc:     svc,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}, nil
}

// Synthesize renders one chunk as MP3 bytes. The configured per-call timeout
// applies unless the caller's context already carries an earlier deadline.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok && g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: voice.Language,
			Name:         voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{AudioEncoding: "MP3"},
	}
	resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("texttospeech request: %w", err)
	}
	blob, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	if len(blob) == 0 {
		return nil, errors.New("texttospeech returned empty audio")
	}
	return blob, nil
}

// ListVoices returns the voice catalog, optionally filtered by language code.
func (g *GoogleSynthesizer) ListVoices(ctx context.Context, language string) ([]VoiceInfo, error) {
	call := g.svc.Voices.List().Context(ctx)
	if language != "" {
		call = call.LanguageCode(language)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	voices := make([]VoiceInfo, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, VoiceInfo{
			Name:       v.Name,
			Languages:  v.LanguageCodes,
			Gender:     v.SsmlGender,
			SampleRate: v.NaturalSampleRateHertz,
		})
	}
	return voices, nil
}
