// Package voicemgr manages voice-channel connection lifecycle per guild.
//
// Each guild moves through Disconnected → Connecting → Connected →
// Disconnected. The manager owns all transitions: explicit join/leave from
// commands, auto-switch when a requester sits in a different channel, and
// reactive auto-leave when the bot ends up alone. Queued artifacts are never
// touched by any transition — a later rejoin resumes playback of leftovers.
package voicemgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/observe"
	"github.com/spacegirl-bot/spacegirl/internal/playback"
	"github.com/spacegirl-bot/spacegirl/pkg/voice"
)

var (
	// ErrNotConnected is returned by Leave when the guild has no active
	// connection.
	ErrNotConnected = errors.New("voicemgr: not connected")

	// ErrAlreadyConnected is returned by Join when the guild is already
	// connected or a connect is in flight.
	ErrAlreadyConnected = errors.New("voicemgr: already connected")
)

// Manager coordinates voice-channel membership for every guild. All exported
// methods are safe for concurrent use.
type Manager struct {
	state    *playback.State
	platform voice.Platform
	logger   *slog.Logger
	metrics  *observe.Metrics

	mu sync.Mutex
	// connecting marks guilds with an in-flight connect, so a second join
	// cannot race the first. The platform connect itself runs outside mu:
	// transport event handlers may call back into this manager.
	connecting map[string]bool
}

// Option is a functional option for configuring a Manager.
type Option func(*Manager)

// WithMetrics attaches metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(mg *Manager) { mg.metrics = m }
}

// New creates a Manager over the given playback state and voice platform.
func New(state *playback.State, platform voice.Platform, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		state:      state,
		platform:   platform,
		logger:     logger,
		connecting: make(map[string]bool),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Join connects the guild to the requested voice channel. It fails with
// ErrAlreadyConnected when a connection is live or a connect is in flight.
func (m *Manager) Join(ctx context.Context, guildID, channelID string) error {
	m.mu.Lock()
	if m.connecting[guildID] {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	if conn := m.state.Connection(guildID); conn != nil {
		if conn.IsConnected() {
			m.mu.Unlock()
			return ErrAlreadyConnected
		}
		// Dead handle from a dropped session; clear it so the state machine
		// restarts from Disconnected.
		m.clearLocked(guildID)
	}
	m.connecting[guildID] = true
	m.mu.Unlock()

	conn, err := m.platform.Connect(ctx, guildID, channelID)

	m.mu.Lock()
	delete(m.connecting, guildID)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("voicemgr: join %s: %w", channelID, err)
	}
	m.state.SetConnection(guildID, conn)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveVoiceConnections.Add(ctx, 1)
	}
	m.logger.Info("joined voice channel", "guild_id", guildID, "channel_id", channelID)
	return nil
}

// Leave disconnects the guild's voice connection. The connection handle is
// cleared synchronously before the transport disconnect runs, so the
// scheduler can never pick up a half-dead handle. Queues are untouched.
func (m *Manager) Leave(guildID string) error {
	m.mu.Lock()
	conn := m.state.ClearConnection(guildID)
	m.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.Disconnect(); err != nil {
		m.logger.Warn("voice disconnect error", "guild_id", guildID, "error", err)
	}
	if m.metrics != nil {
		m.metrics.ActiveVoiceConnections.Add(context.Background(), -1)
	}
	m.logger.Info("left voice channel", "guild_id", guildID)
	return nil
}

// EnsureChannel guarantees the guild is connected to the requested channel,
// switching from another channel if needed. TTS always plays where the
// requester currently is.
func (m *Manager) EnsureChannel(ctx context.Context, guildID, channelID string) error {
	if m.state.IsConnectedTo(guildID, channelID) {
		return nil
	}
	if err := m.Leave(guildID); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return m.Join(ctx, guildID, channelID)
}

// clearLocked nulls a dead connection handle. Caller must hold m.mu.
func (m *Manager) clearLocked(guildID string) {
	if m.state.ClearConnection(guildID) != nil && m.metrics != nil {
		m.metrics.ActiveVoiceConnections.Add(context.Background(), -1)
	}
}

// HandleVoiceStateUpdate reacts to channel-membership changes. Register it
// as a discordgo event handler.
//
// Two cases matter:
//   - the bot's own voice state lost its channel: force the local state to
//     Disconnected so it matches reality;
//   - anyone else moved: if the bot's channel now holds no non-bot members,
//     leave proactively. Membership is re-derived from the session state at
//     decision time, not from the event payload, to avoid racing the roster.
func (m *Manager) HandleVoiceStateUpdate(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	if vsu == nil || vsu.VoiceState == nil {
		return
	}
	guildID := vsu.GuildID

	if s.State != nil && s.State.User != nil && vsu.UserID == s.State.User.ID {
		if vsu.ChannelID == "" {
			m.mu.Lock()
			m.clearLocked(guildID)
			m.mu.Unlock()
			m.logger.Info("voice connection dropped externally", "guild_id", guildID)
		}
		return
	}

	conn := m.state.Connection(guildID)
	if conn == nil || !conn.IsConnected() {
		return
	}

	if m.nonBotOccupants(s, guildID, conn.ChannelID()) == 0 {
		m.logger.Info("alone in voice channel, leaving", "guild_id", guildID)
		if err := m.Leave(guildID); err != nil && !errors.Is(err, ErrNotConnected) {
			m.logger.Warn("auto-leave failed", "guild_id", guildID, "error", err)
		}
	}
}

// nonBotOccupants counts non-bot members currently in the given channel,
// according to the session's authoritative guild state. Members whose bot
// flag cannot be determined count as human.
func (m *Manager) nonBotOccupants(s *discordgo.Session, guildID, channelID string) int {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		m.logger.Warn("guild state unavailable", "guild_id", guildID, "error", err)
		return -1
	}

	var count int
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		if s.State.User != nil && vs.UserID == s.State.User.ID {
			continue
		}
		member, err := s.State.Member(guildID, vs.UserID)
		if err != nil || member.User == nil || !member.User.Bot {
			count++
		}
	}
	return count
}
