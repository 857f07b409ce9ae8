// Package tts defines the Provider interface for text-to-speech backends and
// the shared failure taxonomy for synthesis.
//
// A TTS provider wraps a speech synthesis service and turns (voice ID, text)
// into decoded audio bytes. Providers operate in batch mode: one call per
// utterance, the full clip returned at once. Persisting the clip to disk is
// the caller's concern.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
)

// Sentinel errors classifying synthesis failures. Callers match them with
// [errors.Is]; providers and validation layers wrap them with context.
var (
	// ErrTooLong indicates the input exceeds the provider's character limit
	// or would produce an over-long artifact filename.
	ErrTooLong = errors.New("tts: input too long")

	// ErrTooManyRepeatChars indicates the input contains a run of the same
	// character beyond the allowed threshold.
	ErrTooManyRepeatChars = errors.New("tts: too many repeated characters")

	// ErrLanguageUnsupported indicates the provider rejected the input as
	// unsupported for the requested voice's language.
	ErrLanguageUnsupported = errors.New("tts: language not supported for this voice")

	// ErrTimeout indicates the synthesis request exceeded its time budget.
	ErrTimeout = errors.New("tts: synthesis request timed out")

	// ErrProvider indicates any other provider-side failure.
	ErrProvider = errors.New("tts: provider error")
)

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use; multiple synthesis
// requests may run in parallel (one per guild).
type Provider interface {
	// Synthesize converts text to speech using the provider voice identified
	// by voiceID and returns the decoded audio bytes (an mp3 clip).
	//
	// Returned errors wrap one of the sentinel errors above so callers can
	// classify the failure without string matching. No retries are performed;
	// a failed call is reported to the caller, who decides whether to inform
	// the end user.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}
