// Package resilience shields the synthesis pipeline from an unhealthy TTS
// provider. A three-state circuit breaker (closed → open → half-open) fails
// requests fast while the provider is down instead of letting every /tts
// invocation hang until its timeout.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker is open and the
// retry window has not yet elapsed.
var ErrOpen = errors.New("resilience: breaker open")

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed forwards all calls.
	Closed State = iota

	// Open rejects calls with [ErrOpen] until the retry window elapses.
	Open

	// HalfOpen lets a limited number of probe calls through to decide
	// whether to close again.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	defaultTripAfter  = 5
	defaultRetryAfter = 30 * time.Second
	defaultProbes     = 3
)

// Option configures a Breaker.
type Option func(*Breaker)

// WithTripAfter sets how many consecutive failures open the breaker.
func WithTripAfter(n int) Option {
	return func(b *Breaker) { b.tripAfter = n }
}

// WithRetryAfter sets how long the breaker stays open before probing again.
func WithRetryAfter(d time.Duration) Option {
	return func(b *Breaker) { b.retryAfter = d }
}

// WithProbes sets how many successful probe calls close a half-open breaker.
func WithProbes(n int) Option {
	return func(b *Breaker) { b.probes = n }
}

// WithLogger sets the logger for state-transition messages.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Breaker) { b.logger = logger }
}

// Breaker is a three-state circuit breaker. Safe for concurrent use.
type Breaker struct {
	name       string
	tripAfter  int
	retryAfter time.Duration
	probes     int
	logger     *slog.Logger

	mu         sync.Mutex
	state      State
	failures   int
	lastFail   time.Time
	probeCalls int
	probeFails int
}

// NewBreaker creates a closed Breaker named for log messages.
func NewBreaker(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:       name,
		tripAfter:  defaultTripAfter,
		retryAfter: defaultRetryAfter,
		probes:     defaultProbes,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Do runs fn unless the breaker is open. Failures reported by fn count
// toward tripping the breaker; a nil return resets the failure streak.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case Open:
		if time.Since(b.lastFail) < b.retryAfter {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = HalfOpen
		b.probeCalls = 0
		b.probeFails = 0
		b.logger.Info("breaker half-open", "name", b.name)

	case HalfOpen:
		if b.probeCalls >= b.probes {
			b.mu.Unlock()
			return ErrOpen
		}
	}

	probing := b.state == HalfOpen
	if probing {
		b.probeCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure(probing)
	} else {
		b.onSuccess(probing)
	}
	return err
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure(probing bool) {
	b.lastFail = time.Now()

	if probing {
		b.probeFails++
		b.state = Open
		b.failures = b.tripAfter
		b.logger.Warn("breaker re-opened", "name", b.name)
		return
	}

	b.failures++
	if b.failures >= b.tripAfter {
		b.state = Open
		b.logger.Warn("breaker opened", "name", b.name, "consecutive_failures", b.failures)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess(probing bool) {
	if probing {
		if b.probeCalls-b.probeFails >= b.probes {
			b.state = Closed
			b.failures = 0
			b.logger.Info("breaker closed", "name", b.name)
		}
		return
	}
	b.failures = 0
}

// State returns the breaker's current state. An open breaker whose retry
// window has elapsed reports HalfOpen; the transition itself happens on the
// next [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && time.Since(b.lastFail) >= b.retryAfter {
		return HalfOpen
	}
	return b.state
}
