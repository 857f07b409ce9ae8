// Package mock provides in-memory mock implementations of the
// [voice.Platform] and [voice.Connection] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields that the test can set to control return values.
//
// Typical usage:
//
//	conn := &mock.Connection{ConnectedResult: true}
//	platform := &mock.Platform{ConnectResult: conn}
//	got, err := platform.Connect(ctx, "guild-1", "channel-42")
//	...
//	conn.FinishPlayback(nil) // complete the in-flight clip
package mock

import (
	"context"
	"sync"

	"github.com/spacegirl-bot/spacegirl/pkg/voice"
)

// ─── Connection ───────────────────────────────────────────────────────────────

// PlayCall records the arguments of a single [Connection.Play] invocation.
type PlayCall struct {
	// Path is the artifact path passed to Play.
	Path string
}

// Connection is a mock implementation of [voice.Connection].
// Set the exported Result fields before use; inspect the Call* fields after.
type Connection struct {
	mu sync.Mutex

	// ConnectedResult is returned by IsConnected.
	ConnectedResult bool

	// ChannelIDResult is returned by ChannelID.
	ChannelIDResult string

	// PlayError, when non-nil, is returned by Play without starting playback.
	PlayError error

	// DisconnectError is returned by the first Disconnect call.
	DisconnectError error

	// PlayCalls records all Play invocations that started playback.
	PlayCalls []PlayCall

	// CallCountDisconnect records how many times Disconnect was called.
	CallCountDisconnect int

	playing    bool
	onComplete func(error)
}

// Play implements [voice.Connection]. It records the call, marks the
// connection busy, and stores onComplete for a later [Connection.FinishPlayback].
func (c *Connection) Play(path string, onComplete func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PlayError != nil {
		return c.PlayError
	}
	c.PlayCalls = append(c.PlayCalls, PlayCall{Path: path})
	c.playing = true
	c.onComplete = onComplete
	return nil
}

// IsPlaying implements [voice.Connection].
func (c *Connection) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// IsConnected implements [voice.Connection]. Returns ConnectedResult.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ConnectedResult
}

// ChannelID implements [voice.Connection]. Returns ChannelIDResult.
func (c *Connection) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ChannelIDResult
}

// Disconnect implements [voice.Connection]. It marks the connection as
// disconnected and idle.
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountDisconnect++
	c.ConnectedResult = false
	c.playing = false
	return c.DisconnectError
}

// FinishPlayback completes the in-flight clip, invoking the stored completion
// callback with err. It is a no-op if nothing is playing.
func (c *Connection) FinishPlayback(err error) {
	c.mu.Lock()
	cb := c.onComplete
	c.onComplete = nil
	c.playing = false
	c.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// ─── Platform ─────────────────────────────────────────────────────────────────

// ConnectCall records the arguments of a single [Platform.Connect] invocation.
type ConnectCall struct {
	// GuildID is the guildID argument passed to Connect.
	GuildID string
	// ChannelID is the channelID argument passed to Connect.
	ChannelID string
}

// Platform is a mock implementation of [voice.Platform].
type Platform struct {
	mu sync.Mutex

	// ConnectResult is the [voice.Connection] returned by Connect. When a
	// *Connection, its ConnectedResult and ChannelIDResult are updated to
	// reflect the join.
	ConnectResult voice.Connection

	// ConnectError is the error returned by Connect.
	ConnectError error

	// ConnectCalls records all Connect invocations.
	ConnectCalls []ConnectCall
}

// Connect implements [voice.Platform]. Records the call and returns
// ConnectResult / ConnectError.
func (p *Platform) Connect(_ context.Context, guildID, channelID string) (voice.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{GuildID: guildID, ChannelID: channelID})
	if p.ConnectError != nil {
		return nil, p.ConnectError
	}
	if mc, ok := p.ConnectResult.(*Connection); ok && mc != nil {
		mc.mu.Lock()
		mc.ConnectedResult = true
		mc.ChannelIDResult = channelID
		mc.mu.Unlock()
	}
	return p.ConnectResult, nil
}
