// Package ttsvibes provides a TTS Vibes-backed synthesis provider. It
// implements the tts.Provider interface.
//
// TTS Vibes exposes its generator as a SvelteKit form action: a single
// form-encoded POST per utterance. A successful response carries a JSON
// "data" payload — itself a JSON-encoded array — whose third element is the
// base64-encoded mp3 clip. Error responses carry a message that is
// classified into the shared tts failure taxonomy.
//
// Typical usage:
//
//	p := ttsvibes.New(ttsvibes.WithTimeout(15 * time.Second))
//	audio, err := p.Synthesize(ctx, "hello there", "tt-en_male_narration")
package ttsvibes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spacegirl-bot/spacegirl/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

const (
	defaultBaseURL = "https://ttsvibes.com"
	defaultTimeout = 30 * time.Second

	generatePath = "/?/generate"
	refererPath  = "/storyteller"

	// languageUnsupportedFragment is the provider's error-message marker for
	// inputs outside a voice's language.
	languageUnsupportedFragment = "not supported for this language"

	// audioPayloadIndex is the position of the base64 audio string within the
	// decoded "data" array of a success response.
	audioPayloadIndex = 2
)

// Option is a functional option for configuring a TTS Vibes Provider.
type Option func(*Provider)

// WithBaseURL overrides the provider's API origin (e.g., a test server URL).
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s if not set.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements tts.Provider backed by the TTS Vibes form action API.
// It is safe for concurrent use.
type Provider struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new TTS Vibes Provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// actionResponse is the top-level SvelteKit form action response envelope.
type actionResponse struct {
	Type  string       `json:"type"`
	Error *actionError `json:"error"`
	// Data is a JSON-encoded array; see parseAudioPayload.
	Data string `json:"data"`
}

// actionError carries the provider's error message.
type actionError struct {
	Message string `json:"message"`
}

// Synthesize issues one generation request and returns the decoded mp3 bytes.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	form := url.Values{
		"selectedVoiceValue": {voiceID},
		"text":               {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+generatePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ttsvibes: build request: %w", err)
	}
	req.Header.Set("x-sveltekit-action", "true")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", p.baseURL)
	req.Header.Set("Referer", p.baseURL+refererPath)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("ttsvibes: %w: %v", tts.ErrTimeout, err)
		}
		return nil, fmt.Errorf("ttsvibes: %w: request: %v", tts.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ttsvibes: %w: read response: %v", tts.ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ttsvibes: %w: unexpected status %d", tts.ErrProvider, resp.StatusCode)
	}

	var action actionResponse
	if err := json.Unmarshal(body, &action); err != nil {
		return nil, fmt.Errorf("ttsvibes: %w: decode envelope: %v", tts.ErrProvider, err)
	}

	if action.Type == "error" {
		return nil, classifyError(action.Error)
	}

	audio, err := parseAudioPayload(action.Data)
	if err != nil {
		return nil, err
	}
	return audio, nil
}

// classifyError maps a provider error message onto the tts failure taxonomy.
func classifyError(ae *actionError) error {
	msg := ""
	if ae != nil {
		msg = ae.Message
	}
	if strings.Contains(msg, languageUnsupportedFragment) {
		return fmt.Errorf("ttsvibes: %w", tts.ErrLanguageUnsupported)
	}
	return fmt.Errorf("ttsvibes: %w: %s", tts.ErrProvider, msg)
}

// parseAudioPayload decodes the success "data" payload: a JSON-encoded array
// whose element at audioPayloadIndex is the base64 mp3 clip.
func parseAudioPayload(data string) ([]byte, error) {
	var elems []any
	if err := json.Unmarshal([]byte(data), &elems); err != nil {
		return nil, fmt.Errorf("ttsvibes: %w: decode data payload: %v", tts.ErrProvider, err)
	}
	if len(elems) <= audioPayloadIndex {
		return nil, fmt.Errorf("ttsvibes: %w: data payload has %d elements, want > %d",
			tts.ErrProvider, len(elems), audioPayloadIndex)
	}
	b64, ok := elems[audioPayloadIndex].(string)
	if !ok {
		return nil, fmt.Errorf("ttsvibes: %w: data payload element %d is %T, want string",
			tts.ErrProvider, audioPayloadIndex, elems[audioPayloadIndex])
	}
	audio, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("ttsvibes: %w: decode audio: %v", tts.ErrProvider, err)
	}
	return audio, nil
}

// isTimeout reports whether err represents a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
