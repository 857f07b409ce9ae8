// Package playback holds per-guild playback state and the background
// scheduler that drains artifact queues into voice connections.
package playback

import (
	"context"
	"sync"

	"github.com/spacegirl-bot/spacegirl/internal/observe"
	"github.com/spacegirl-bot/spacegirl/pkg/voice"
)

// guildState is the per-guild slice of playback state. All access goes
// through the owning State's mutex.
type guildState struct {
	conn          voice.Connection
	lastTriggered string

	// queues holds one FIFO artifact queue per voice identity.
	queues map[string][]string
}

// State tracks, per guild, the active voice connection and one pending
// artifact queue per voice identity. One instance exists for the process;
// all methods are safe for concurrent use.
type State struct {
	mu     sync.Mutex
	guilds map[string]*guildState

	// voiceOrder fixes queue iteration order so scheduling is deterministic.
	voiceOrder []string

	metrics *observe.Metrics
}

// StateOption is a functional option for configuring State.
type StateOption func(*State)

// WithMetrics attaches metric instruments for queue-depth tracking.
func WithMetrics(m *observe.Metrics) StateOption {
	return func(s *State) { s.metrics = m }
}

// NewState creates a State serving the given voice identities. Guild entries
// are created lazily on first interaction.
func NewState(voiceNames []string, opts ...StateOption) *State {
	s := &State{
		guilds:     make(map[string]*guildState),
		voiceOrder: append([]string(nil), voiceNames...),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// guild returns the guild entry, creating it with one empty queue per known
// voice. Caller must hold s.mu.
func (s *State) guild(guildID string) *guildState {
	g, ok := s.guilds[guildID]
	if !ok {
		g = &guildState{queues: make(map[string][]string, len(s.voiceOrder))}
		for _, v := range s.voiceOrder {
			g.queues[v] = nil
		}
		s.guilds[guildID] = g
	}
	return g
}

// InitGuild ensures the guild's state exists. Useful on guild-join events so
// queues are ready before the first request.
func (s *State) InitGuild(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild(guildID)
}

// Enqueue appends an artifact to the guild+voice queue. Queues are unbounded;
// requests are rate-limited by human typing speed upstream.
func (s *State) Enqueue(guildID, voiceName, artifactPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guild(guildID)
	g.queues[voiceName] = append(g.queues[voiceName], artifactPath)
	if s.metrics != nil {
		s.metrics.QueueDepth.Add(context.Background(), 1)
	}
}

// PopNext removes and returns the head artifact of the first non-empty queue
// in voice order. It reports false when every queue is empty.
func (s *State) PopNext(guildID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return "", false
	}
	for _, v := range s.voiceOrder {
		q := g.queues[v]
		if len(q) == 0 {
			continue
		}
		head := q[0]
		g.queues[v] = q[1:]
		if s.metrics != nil {
			s.metrics.QueueDepth.Add(context.Background(), -1)
		}
		return head, true
	}
	return "", false
}

// QueueLen returns the number of queued artifacts for a guild+voice pair.
func (s *State) QueueLen(guildID, voiceName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return 0
	}
	return len(g.queues[voiceName])
}

// TotalQueued returns the number of queued artifacts across all of a guild's
// voices.
func (s *State) TotalQueued(guildID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return 0
	}
	var n int
	for _, q := range g.queues {
		n += len(q)
	}
	return n
}

// SetConnection stores the guild's active voice connection.
func (s *State) SetConnection(guildID string, conn voice.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild(guildID).conn = conn
}

// Connection returns the guild's connection handle, or nil when not
// connected.
func (s *State) Connection(guildID string) voice.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	return g.conn
}

// ClearConnection nulls the guild's connection handle and returns the old
// one. The handle is cleared before any queue processing can read it again.
func (s *State) ClearConnection(guildID string) voice.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	old := g.conn
	g.conn = nil
	g.lastTriggered = ""
	return old
}

// SetLastTriggered records the text channel that last initiated a join, for
// notifications.
func (s *State) SetLastTriggered(guildID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild(guildID).lastTriggered = channelID
}

// LastTriggered returns the text channel that last initiated a join, or "".
func (s *State) LastTriggered(guildID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return ""
	}
	return g.lastTriggered
}

// IsConnected reports whether the guild has a live voice connection.
func (s *State) IsConnected(guildID string) bool {
	conn := s.Connection(guildID)
	return conn != nil && conn.IsConnected()
}

// IsConnectedTo reports whether the guild's live connection is joined to the
// given channel.
func (s *State) IsConnectedTo(guildID, channelID string) bool {
	conn := s.Connection(guildID)
	return conn != nil && conn.IsConnected() && conn.ChannelID() == channelID
}

// GuildIDs returns a snapshot of every guild with state.
func (s *State) GuildIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.guilds))
	for id := range s.guilds {
		ids = append(ids, id)
	}
	return ids
}
