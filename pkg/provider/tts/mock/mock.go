// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled audio payloads to consumers and to verify
// the text and voice ID passed to the TTS backend.
//
// Example:
//
//	p := &mock.Provider{Result: []byte("mp3 bytes")}
//	audio, _ := p.Synthesize(ctx, "hello", "tt-en_male_narration")
package mock

import (
	"context"
	"sync"

	"github.com/spacegirl-bot/spacegirl/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// VoiceID is the provider voice identifier passed to Synthesize.
	VoiceID string
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Result is the audio payload returned by Synthesize when Err is nil.
	Result []byte

	// Err, if non-nil, is returned by every Synthesize call.
	Err error

	// ResultFunc, if non-nil, takes precedence over Result and Err.
	ResultFunc func(ctx context.Context, text, voiceID string) ([]byte, error)

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns the configured result.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, VoiceID: voiceID})
	fn := p.ResultFunc
	result, err := p.Result, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, voiceID)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CallCount returns the number of recorded Synthesize calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.SynthesizeCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
