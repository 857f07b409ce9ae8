package playback

import (
	"testing"

	voicemock "github.com/spacegirl-bot/spacegirl/pkg/voice/mock"
)

func TestEnqueuePopFIFO(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus", "Pirate"})

	s.Enqueue("g1", "Marcus", "a.mp3")
	s.Enqueue("g1", "Marcus", "b.mp3")
	s.Enqueue("g1", "Marcus", "c.mp3")

	for _, want := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		got, ok := s.PopNext("g1")
		if !ok {
			t.Fatalf("PopNext() reported empty, want %q", want)
		}
		if got != want {
			t.Errorf("PopNext() = %q, want %q", got, want)
		}
	}
	if _, ok := s.PopNext("g1"); ok {
		t.Error("PopNext() on empty queues reported an artifact")
	}
}

func TestPopNextHonorsVoiceOrder(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus", "Pirate"})
	s.Enqueue("g1", "Pirate", "pirate.mp3")
	s.Enqueue("g1", "Marcus", "marcus.mp3")

	got, ok := s.PopNext("g1")
	if !ok || got != "marcus.mp3" {
		t.Errorf("PopNext() = %q, %v; want marcus.mp3 first", got, ok)
	}
}

func TestQueuesAreGuildIsolated(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus"})
	s.Enqueue("g1", "Marcus", "one.mp3")

	if n := s.TotalQueued("g2"); n != 0 {
		t.Errorf("TotalQueued(g2) = %d, want 0", n)
	}
	if _, ok := s.PopNext("g2"); ok {
		t.Error("PopNext(g2) returned another guild's artifact")
	}
	if n := s.QueueLen("g1", "Marcus"); n != 1 {
		t.Errorf("QueueLen(g1, Marcus) = %d, want 1", n)
	}
}

func TestConnectionAccessors(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus"})

	if s.IsConnected("g1") {
		t.Error("IsConnected() true before any connection")
	}

	conn := &voicemock.Connection{ConnectedResult: true, ChannelIDResult: "vc-1"}
	s.SetConnection("g1", conn)
	s.SetLastTriggered("g1", "text-1")

	if !s.IsConnected("g1") {
		t.Error("IsConnected() = false, want true")
	}
	if !s.IsConnectedTo("g1", "vc-1") {
		t.Error("IsConnectedTo(vc-1) = false, want true")
	}
	if s.IsConnectedTo("g1", "vc-2") {
		t.Error("IsConnectedTo(vc-2) = true, want false")
	}
	if got := s.LastTriggered("g1"); got != "text-1" {
		t.Errorf("LastTriggered() = %q, want %q", got, "text-1")
	}

	old := s.ClearConnection("g1")
	if old != conn {
		t.Error("ClearConnection() did not return the stored handle")
	}
	if s.Connection("g1") != nil {
		t.Error("Connection() non-nil after clear")
	}
	if got := s.LastTriggered("g1"); got != "" {
		t.Errorf("LastTriggered() = %q after clear, want empty", got)
	}
}

func TestClearConnectionPreservesQueues(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus"})
	s.SetConnection("g1", &voicemock.Connection{ConnectedResult: true})
	s.Enqueue("g1", "Marcus", "pending.mp3")

	s.ClearConnection("g1")

	if n := s.QueueLen("g1", "Marcus"); n != 1 {
		t.Errorf("QueueLen() = %d after disconnect, want 1", n)
	}
}

func TestInitGuildCreatesEmptyQueues(t *testing.T) {
	t.Parallel()

	s := NewState([]string{"Marcus", "Pirate"})
	s.InitGuild("g1")

	ids := s.GuildIDs()
	if len(ids) != 1 || ids[0] != "g1" {
		t.Errorf("GuildIDs() = %v, want [g1]", ids)
	}
	if n := s.TotalQueued("g1"); n != 0 {
		t.Errorf("TotalQueued() = %d for fresh guild, want 0", n)
	}
}
