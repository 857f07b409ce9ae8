// Package mock provides an in-memory store.Store implementation for tests.
package mock

import (
	"context"
	"sync"

	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

// scope identifies one pronunciation namespace.
type scope struct {
	guildID string
	voice   string
}

// Store is an in-memory implementation of store.Store. The zero value is not
// usable; create instances with New. Configure Err to force every operation
// to fail.
type Store struct {
	mu sync.Mutex

	// Err, if non-nil, is returned by every operation.
	Err error

	pronunciations map[scope]map[string]string
	userVoices     map[string]string
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{
		pronunciations: make(map[scope]map[string]string),
		userVoices:     make(map[string]string),
	}
}

// GetPronunciation returns the stored replacement, or "" when absent.
func (s *Store) GetPronunciation(_ context.Context, guildID, voice, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.pronunciations[scope{guildID, voice}][text], nil
}

// AddPronunciation stores an override, replacing any existing one.
func (s *Store) AddPronunciation(_ context.Context, guildID, voice, text, replacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	key := scope{guildID, voice}
	if s.pronunciations[key] == nil {
		s.pronunciations[key] = make(map[string]string)
	}
	s.pronunciations[key][text] = replacement
	return nil
}

// RemovePronunciation deletes an override and reports whether one existed.
func (s *Store) RemovePronunciation(_ context.Context, guildID, voice, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	key := scope{guildID, voice}
	if _, ok := s.pronunciations[key][text]; !ok {
		return false, nil
	}
	delete(s.pronunciations[key], text)
	return true, nil
}

// ListPronunciations returns a copy of every override in the scope.
func (s *Store) ListPronunciations(_ context.Context, guildID, voice string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]string)
	for text, replacement := range s.pronunciations[scope{guildID, voice}] {
		out[text] = replacement
	}
	return out, nil
}

// UserVoice returns the stored preference, or "" when absent.
func (s *Store) UserVoice(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.userVoices[userID], nil
}

// SetUserVoice stores the preference; an empty voice clears it.
func (s *Store) SetUserVoice(_ context.Context, userID, voice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if voice == "" {
		delete(s.userVoices, userID)
		return nil
	}
	s.userVoices[userID] = voice
	return nil
}
