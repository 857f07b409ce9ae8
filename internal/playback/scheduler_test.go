package playback

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	voicemock "github.com/spacegirl-bot/spacegirl/pkg/voice/mock"
)

func newTestScheduler(t *testing.T, s *State) *Scheduler {
	t.Helper()
	return NewScheduler(s, slog.New(slog.DiscardHandler))
}

// writeArtifact creates a throwaway artifact file and returns its path.
func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDispatchPlaysInFIFOOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus"})
	conn := &voicemock.Connection{ConnectedResult: true}
	s.SetConnection("g1", conn)

	paths := []string{
		writeArtifact(t, dir, "a.mp3"),
		writeArtifact(t, dir, "b.mp3"),
		writeArtifact(t, dir, "c.mp3"),
	}
	for _, p := range paths {
		s.Enqueue("g1", "Marcus", p)
	}

	sched := newTestScheduler(t, s)
	for _, want := range paths {
		sched.Dispatch()
		got := conn.PlayCalls[len(conn.PlayCalls)-1].Path
		if got != want {
			t.Fatalf("played %q, want %q", got, want)
		}
		conn.FinishPlayback(nil)
	}
	if len(conn.PlayCalls) != 3 {
		t.Errorf("PlayCalls = %d, want 3", len(conn.PlayCalls))
	}
}

func TestDispatchSkipsGuildWithoutConnection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus"})
	s.Enqueue("g1", "Marcus", writeArtifact(t, dir, "a.mp3"))
	s.Enqueue("g1", "Marcus", writeArtifact(t, dir, "b.mp3"))

	sched := newTestScheduler(t, s)
	for range 5 {
		sched.Dispatch()
	}

	if n := s.TotalQueued("g1"); n != 2 {
		t.Errorf("TotalQueued() = %d after ticks with no connection, want 2", n)
	}
}

func TestDispatchSkipsDeadConnection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus"})
	conn := &voicemock.Connection{ConnectedResult: false}
	s.SetConnection("g1", conn)
	s.Enqueue("g1", "Marcus", writeArtifact(t, dir, "a.mp3"))

	newTestScheduler(t, s).Dispatch()

	if len(conn.PlayCalls) != 0 {
		t.Errorf("Play was called on a dead connection")
	}
	if n := s.TotalQueued("g1"); n != 1 {
		t.Errorf("TotalQueued() = %d, want 1", n)
	}
}

func TestDispatchOnePlaybackPerGuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus", "Pirate"})
	conn := &voicemock.Connection{ConnectedResult: true}
	s.SetConnection("g1", conn)

	s.Enqueue("g1", "Marcus", writeArtifact(t, dir, "a.mp3"))
	s.Enqueue("g1", "Pirate", writeArtifact(t, dir, "b.mp3"))

	sched := newTestScheduler(t, s)
	sched.Dispatch()

	if len(conn.PlayCalls) != 1 {
		t.Fatalf("PlayCalls = %d after one tick, want 1", len(conn.PlayCalls))
	}
	if n := s.TotalQueued("g1"); n != 1 {
		t.Errorf("TotalQueued() = %d, want 1 still queued", n)
	}

	// A busy connection is not handed a second clip.
	sched.Dispatch()
	if len(conn.PlayCalls) != 1 {
		t.Errorf("PlayCalls = %d while busy, want 1", len(conn.PlayCalls))
	}
}

func TestCompletionDeletesArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus"})
	conn := &voicemock.Connection{ConnectedResult: true}
	s.SetConnection("g1", conn)

	path := writeArtifact(t, dir, "a.mp3")
	s.Enqueue("g1", "Marcus", path)

	newTestScheduler(t, s).Dispatch()
	conn.FinishPlayback(nil)

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact still exists after completion: %v", err)
	}
}

func TestCompletionWithErrorStillDeletes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus"})
	conn := &voicemock.Connection{ConnectedResult: true}
	s.SetConnection("g1", conn)

	path := writeArtifact(t, dir, "a.mp3")
	s.Enqueue("g1", "Marcus", path)

	newTestScheduler(t, s).Dispatch()
	conn.FinishPlayback(errors.New("stream interrupted"))

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact still exists after failed playback: %v", err)
	}
}

func TestSynchronousPlayErrorCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewState([]string{"Marcus"})
	conn := &voicemock.Connection{
		ConnectedResult: true,
		PlayError:       errors.New("transport refused"),
	}
	s.SetConnection("g1", conn)

	path := writeArtifact(t, dir, "a.mp3")
	s.Enqueue("g1", "Marcus", path)

	newTestScheduler(t, s).Dispatch()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact not cleaned up after synchronous Play error: %v", err)
	}
}

func TestMissingArtifactDeleteIsTolerated(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus"})
	conn := &voicemock.Connection{ConnectedResult: true}
	s.SetConnection("g1", conn)

	// Enqueue a path that never existed.
	s.Enqueue("g1", "Marcus", filepath.Join(t.TempDir(), "ghost.mp3"))

	newTestScheduler(t, s).Dispatch()
	conn.FinishPlayback(nil) // must not panic or error the scheduler
}
