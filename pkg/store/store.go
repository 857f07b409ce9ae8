// Package store defines persistence interfaces for pronunciation overrides
// and per-user voice preferences.
//
// Pronunciation overrides are scoped by guild and voice. The sentinel values
// GlobalGuildID and AllVoices widen a scope: an override stored under
// GlobalGuildID applies in every guild, and one stored under AllVoices applies
// to every voice.
package store

import "context"

const (
	// GlobalGuildID is the guild scope for overrides that apply everywhere.
	GlobalGuildID = "-1"

	// AllVoices is the voice scope for overrides that apply to every voice.
	AllVoices = "All Voices"
)

// PronunciationStore persists per-scope pronunciation overrides.
type PronunciationStore interface {
	// GetPronunciation returns the replacement stored for text in the given
	// scope, or "" with a nil error when no override exists.
	GetPronunciation(ctx context.Context, guildID, voice, text string) (string, error)

	// AddPronunciation stores an override, replacing any existing one for the
	// same scope and text.
	AddPronunciation(ctx context.Context, guildID, voice, text, replacement string) error

	// RemovePronunciation deletes an override. It reports whether an override
	// existed.
	RemovePronunciation(ctx context.Context, guildID, voice, text string) (bool, error)

	// ListPronunciations returns every override in the given scope, keyed by
	// trigger text.
	ListPronunciations(ctx context.Context, guildID, voice string) (map[string]string, error)
}

// PreferenceStore persists per-user settings.
type PreferenceStore interface {
	// UserVoice returns the user's preferred voice name, or "" with a nil
	// error when none is set.
	UserVoice(ctx context.Context, userID string) (string, error)

	// SetUserVoice stores the user's preferred voice name. An empty voice
	// clears the preference.
	SetUserVoice(ctx context.Context, userID, voice string) error
}

// Store combines all persistence concerns behind one interface.
type Store interface {
	PronunciationStore
	PreferenceStore
}
