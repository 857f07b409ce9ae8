// Package discord provides a [voice.Platform] implementation backed by
// Discord voice channels via the bwmarrin/discordgo library. It bridges
// Discord's Opus-based voice transport with Spacegirl's file-based clip
// playback: mp3 artifacts are decoded, resampled to Discord's 48 kHz stereo
// format, Opus-encoded, and streamed over the voice connection.
//
// The platform requires an active *discordgo.Session (owned by the bot
// layer). Each call to [Platform.Connect] joins the requested voice channel
// and returns a [Connection] that plays one clip at a time.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/pkg/voice"
)

// Compile-time interface assertion.
var _ voice.Platform = (*Platform)(nil)

// Platform implements [voice.Platform] using discordgo voice connections.
// It requires an active *discordgo.Session (owned by the bot layer).
//
// Platform is safe for concurrent use.
type Platform struct {
	session *discordgo.Session
}

// New creates a new Discord Platform for the given session.
func New(session *discordgo.Session) *Platform {
	return &Platform{session: session}
}

// Connect joins the voice channel identified by (guildID, channelID) and
// returns an active [voice.Connection]. The supplied ctx governs the
// connection-setup phase only; once the Connection is returned it lives until
// [Connection.Disconnect] is called.
func (p *Platform) Connect(_ context.Context, guildID, channelID string) (voice.Connection, error) {
	// mute=false (we send audio), deaf=true (a TTS bot never listens).
	vc, err := p.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("discord: join voice channel %q: %w", channelID, err)
	}
	return newConnection(vc, guildID, channelID), nil
}
