// Package synth turns validated text into playable audio artifacts on disk.
//
// The client enforces input limits before any provider call: over-long text
// and excessive character repetition are rejected locally, so a rejected
// request costs no network round-trip and leaves no file behind. Successful
// synthesis writes one mp3 artifact under the downloads directory; the
// caller owns its deletion after playback.
package synth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spacegirl-bot/spacegirl/internal/observe"
	"github.com/spacegirl-bot/spacegirl/pkg/provider/tts"
)

const (
	// DefaultMaxChars bounds input length in runes.
	DefaultMaxChars = 300

	// DefaultRepeatLimit bounds runs of the same character.
	DefaultRepeatLimit = 4

	// artifactExt is the extension of every written artifact.
	artifactExt = ".mp3"

	// maxFilenameLen keeps artifact names within common filesystem limits.
	maxFilenameLen = 255
)

// illegalFilenameChars are stripped when projecting text into a filename.
const illegalFilenameChars = `\/*?:"<>,|`

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithMaxChars overrides the input length limit.
func WithMaxChars(n int) Option {
	return func(c *Client) { c.maxChars = n }
}

// WithRepeatLimit overrides the same-character run limit.
func WithRepeatLimit(n int) Option {
	return func(c *Client) { c.repeatLimit = n }
}

// WithMetrics attaches metric instruments. When unset, no metrics are
// recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client validates text and drives the TTS provider, persisting results as
// mp3 artifacts. It is safe for concurrent use.
type Client struct {
	provider    tts.Provider
	dir         string
	maxChars    int
	repeatLimit int
	metrics     *observe.Metrics
}

// NewClient creates a Client writing artifacts into dir. The directory is
// created if missing.
func NewClient(provider tts.Provider, dir string, opts ...Option) (*Client, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("synth: create downloads dir: %w", err)
	}
	c := &Client{
		provider:    provider,
		dir:         dir,
		maxChars:    DefaultMaxChars,
		repeatLimit: DefaultRepeatLimit,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Dir returns the artifact directory.
func (c *Client) Dir() string {
	return c.dir
}

// Synthesize validates text, requests audio for it with the given provider
// voice ID, and writes the result to a new artifact file. It returns the
// artifact path. On any failure no file is written.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if err := c.validate(text); err != nil {
		return "", err
	}

	start := time.Now()
	audio, err := c.provider.Synthesize(ctx, text, voiceID)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordSynthesis(ctx, voiceID, status, time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("synth: %w", err)
	}

	path := filepath.Join(c.dir, uuid.New().String()+artifactExt)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("synth: write artifact: %w", err)
	}
	return path, nil
}

// validate applies the local input limits.
func (c *Client) validate(text string) error {
	// Names derived from the text must stay a legal filename even after
	// stripping, so bound the projected length too.
	projected := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalFilenameChars, r) {
			return -1
		}
		return r
	}, text)
	if len(projected) > maxFilenameLen-len(artifactExt) {
		return fmt.Errorf("synth: %w: %d bytes after filename projection", tts.ErrTooLong, len(projected))
	}

	if n := len([]rune(text)); n > c.maxChars {
		return fmt.Errorf("synth: %w: %d chars, limit %d", tts.ErrTooLong, n, c.maxChars)
	}

	if run, r := longestRun(text); run > c.repeatLimit {
		return fmt.Errorf("synth: %w: %q repeated %d times, limit %d",
			tts.ErrTooManyRepeatChars, r, run, c.repeatLimit)
	}
	return nil
}

// longestRun returns the length and character of the longest run of the same
// rune in s.
func longestRun(s string) (int, rune) {
	var (
		best, cur  int
		bestR, pre rune
	)
	for i, r := range s {
		if i > 0 && r == pre {
			cur++
		} else {
			cur = 1
			pre = r
		}
		if cur > best {
			best = cur
			bestR = r
		}
	}
	return best, bestR
}

// Sweep removes leftover artifacts from previous runs. Call it once at
// startup, before the scheduler starts.
func (c *Client) Sweep() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("synth: sweep: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), artifactExt) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("synth: sweep: %w", errors.Join(errs...))
	}
	return nil
}
