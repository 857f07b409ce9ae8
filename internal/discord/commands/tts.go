package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/discord"
	"github.com/spacegirl-bot/spacegirl/internal/playback"
	"github.com/spacegirl-bot/spacegirl/internal/pronounce"
	"github.com/spacegirl-bot/spacegirl/internal/synth"
	"github.com/spacegirl-bot/spacegirl/internal/voicemgr"
	"github.com/spacegirl-bot/spacegirl/internal/voices"
	"github.com/spacegirl-bot/spacegirl/pkg/provider/tts"
	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

// TTSCommands holds the dependencies for the /tts slash command.
type TTSCommands struct {
	state    *playback.State
	mgr      *voicemgr.Manager
	resolver *pronounce.Resolver
	synth    *synth.Client
	prefs    store.PreferenceStore
}

// NewTTSCommands creates a TTSCommands handler.
func NewTTSCommands(state *playback.State, mgr *voicemgr.Manager, resolver *pronounce.Resolver, synthClient *synth.Client, prefs store.PreferenceStore) *TTSCommands {
	return &TTSCommands{
		state:    state,
		mgr:      mgr,
		resolver: resolver,
		synth:    synthClient,
		prefs:    prefs,
	}
}

// Register registers /tts with the router.
func (tc *TTSCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("tts", tc.Definition(), tc.handleTTS)
}

// Definition returns the /tts ApplicationCommand for Discord registration.
func (tc *TTSCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "tts",
		Description: "Speak a message in your voice channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "text",
				Description: "Message to speak",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
			},
			{
				Name:        "voice",
				Description: "Voice to speak with (defaults to your saved voice)",
				Type:        discordgo.ApplicationCommandOptionString,
				Choices:     voiceChoices(),
			},
		},
	}
}

func (tc *TTSCommands) handleTTS(s *discordgo.Session, i *discordgo.InteractionCreate) {
	tc.run(s, s, i)
}

// run is the testable body of /tts: sess provides guild state lookups, r
// receives the interaction responses.
func (tc *TTSCommands) run(sess *discordgo.Session, r discord.Responder, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	if guildID == "" {
		discord.RespondEphemeral(r, i, "This command only works in a server.")
		return
	}
	tc.state.InitGuild(guildID)

	userID := interactionUserID(i)
	vs, err := sess.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		discord.RespondEphemeral(r, i, "Join a voice channel first.")
		return
	}

	ctx := context.Background()

	voiceName := stringOption(i, "voice")
	if voiceName == "" {
		stored, prefErr := tc.prefs.UserVoice(ctx, userID)
		if prefErr != nil {
			slog.Warn("tts: user voice lookup failed", "user_id", userID, "err", prefErr)
		}
		voiceName = stored
	}
	if voiceName == "" {
		discord.RespondEphemeral(r, i, "Pick a voice, or save a default with `/settings voice`.")
		return
	}

	v, err := voices.Resolve(voiceName)
	if err != nil {
		discord.RespondEphemeral(r, i, fmt.Sprintf("Unknown voice %q.", voiceName))
		return
	}

	// Synthesis can take a while; everything past this point answers via
	// follow-up.
	discord.DeferReply(r, i)

	if err := tc.mgr.EnsureChannel(ctx, guildID, vs.ChannelID); err != nil {
		slog.Warn("tts: join failed", "guild_id", guildID, "channel_id", vs.ChannelID, "err", err)
		discord.FollowUp(r, i, "Could not join your voice channel.")
		return
	}
	tc.state.SetLastTriggered(guildID, i.ChannelID)

	text := tc.resolver.Resolve(ctx, stringOption(i, "text"), v.Name, guildID)

	path, err := tc.synth.Synthesize(ctx, text, v.ID)
	if err != nil {
		discord.FollowUp(r, i, synthesisFailureMessage(err))
		return
	}

	tc.state.Enqueue(guildID, v.Name, path)
	discord.FollowUp(r, i, fmt.Sprintf("Queued for **%s**.", v.Name))
}

// synthesisFailureMessage maps a synthesis error to a user-facing rejection.
func synthesisFailureMessage(err error) string {
	switch {
	case errors.Is(err, tts.ErrTooLong):
		return "That message is too long to synthesize."
	case errors.Is(err, tts.ErrTooManyRepeatChars):
		return "That message repeats the same character too many times."
	case errors.Is(err, tts.ErrLanguageUnsupported):
		return "That voice does not support this language."
	case errors.Is(err, tts.ErrTimeout):
		return "The voice provider took too long to answer. Try again."
	default:
		return "Could not synthesize that message."
	}
}
