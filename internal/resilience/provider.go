package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacegirl-bot/spacegirl/pkg/provider/tts"
)

// Provider wraps a tts.Provider with a [Breaker]. Only provider-health
// failures (timeouts, malformed or error responses) count toward tripping;
// per-request rejections like an unsupported language say nothing about
// whether the backend is up.
type Provider struct {
	inner   tts.Provider
	breaker *Breaker
}

var _ tts.Provider = (*Provider)(nil)

// NewProvider wraps inner with breaker.
func NewProvider(inner tts.Provider, breaker *Breaker) *Provider {
	return &Provider{inner: inner, breaker: breaker}
}

// Synthesize forwards to the wrapped provider unless the breaker is open.
// While open it fails immediately, wrapping both [ErrOpen] and
// [tts.ErrProvider] so callers can classify it as a provider failure.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	var (
		audio    []byte
		synthErr error
	)
	err := p.breaker.Do(func() error {
		audio, synthErr = p.inner.Synthesize(ctx, text, voiceID)
		if synthErr != nil && !countsAsOutage(synthErr) {
			// Surface the error to the caller but keep the breaker's
			// failure streak untouched.
			return nil
		}
		return synthErr
	})
	if errors.Is(err, ErrOpen) {
		return nil, fmt.Errorf("resilience: %w: %w", tts.ErrProvider, ErrOpen)
	}
	if synthErr != nil {
		return nil, synthErr
	}
	return audio, nil
}

// countsAsOutage reports whether err indicates the provider itself is
// unhealthy.
func countsAsOutage(err error) bool {
	return errors.Is(err, tts.ErrTimeout) || errors.Is(err, tts.ErrProvider)
}
