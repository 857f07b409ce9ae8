// Package voice defines the interfaces for voice-channel connectivity and
// clip playback within Spacegirl.
//
// The two primary abstractions are:
//
//   - [Platform] — joins a voice channel and returns a [Connection].
//   - [Connection] — represents an active voice-channel session that can play
//     one audio clip at a time and report its busy/connected state.
//
// Implementations of these interfaces are provided by platform-specific
// adapter packages (e.g., voice/discord). The interfaces are intentionally
// narrow so the playback scheduler stays decoupled from transport details.
package voice

import "context"

// Connection represents an active session on a voice channel.
//
// A Connection is obtained from [Platform.Connect] and remains valid until
// [Connection.Disconnect] is called or the transport drops the session.
// A Connection plays at most one clip at a time.
//
// Implementations must be safe for concurrent use.
type Connection interface {
	// Play starts playback of the audio file at path. The onComplete callback
	// is invoked exactly once when playback finishes, whether it succeeded or
	// failed; the error passed to it is nil on success. The callback runs on
	// an internal goroutine — it must not block.
	//
	// Play returns an error without invoking onComplete if playback cannot be
	// started (already playing, disconnected, unreadable file).
	Play(path string, onComplete func(error)) error

	// IsPlaying reports whether a clip is currently being played.
	IsPlaying() bool

	// IsConnected reports whether the underlying transport session is still
	// established. A Connection that returns false never becomes connected
	// again; callers should discard it.
	IsConnected() bool

	// ChannelID returns the ID of the voice channel this connection is joined
	// to.
	ChannelID() string

	// Disconnect tears down the connection. Any in-flight playback is stopped
	// as a side effect of the transport closing. It is safe to call
	// Disconnect more than once; subsequent calls are no-ops and return nil.
	Disconnect() error
}

// Platform is the entry point for a voice-channel provider. Implementations
// wrap provider-specific SDKs and expose a uniform [Connection] abstraction.
//
// Implementations must be safe for concurrent use.
type Platform interface {
	// Connect joins the voice channel identified by (guildID, channelID) and
	// returns an active [Connection]. The supplied ctx governs the connection
	// attempt only; once connected, the Connection remains alive until
	// [Connection.Disconnect] is called.
	Connect(ctx context.Context, guildID, channelID string) (Connection, error)
}
