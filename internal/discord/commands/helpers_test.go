package commands

import (
	"log/slog"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/playback"
	"github.com/spacegirl-bot/spacegirl/internal/pronounce"
	"github.com/spacegirl-bot/spacegirl/internal/synth"
	"github.com/spacegirl-bot/spacegirl/internal/voices"
	ttsmock "github.com/spacegirl-bot/spacegirl/pkg/provider/tts/mock"
	storemock "github.com/spacegirl-bot/spacegirl/pkg/store/mock"
)

const (
	testGuildID   = "guild-1"
	testChannelID = "text-chan-1"
	testVoiceChan = "voice-chan-1"
	testUserID    = "user-1"
)

// opt builds a string option for interaction payloads.
func opt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

// boolOpt builds a boolean option for interaction payloads.
func boolOpt(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

// guildInteraction builds an ApplicationCommand interaction invoked by
// testUserID inside testGuildID.
func guildInteraction(command string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuildID,
			ChannelID: testChannelID,
			Member:    &discordgo.Member{User: &discordgo.User{ID: testUserID}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    command,
				Options: options,
			},
		},
	}
}

// subInteraction builds a subcommand interaction invoked inside testGuildID.
func subInteraction(command, sub string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return guildInteraction(command, &discordgo.ApplicationCommandInteractionDataOption{
		Name:    sub,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: options,
	})
}

// buttonInteraction builds a MessageComponent interaction for a button press.
func buttonInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionMessageComponent,
			GuildID: testGuildID,
			Member:  &discordgo.Member{User: &discordgo.User{ID: testUserID}},
			Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
		},
	}
}

// newTestSession builds an offline session whose state has testUserID sitting
// in testVoiceChan. inVoice=false leaves the user outside any voice channel.
func newTestSession(t *testing.T, inVoice bool) *discordgo.Session {
	t.Helper()

	st := discordgo.NewState()
	guild := &discordgo.Guild{ID: testGuildID}
	if inVoice {
		guild.VoiceStates = []*discordgo.VoiceState{
			{GuildID: testGuildID, UserID: testUserID, ChannelID: testVoiceChan},
		}
	}
	if err := st.GuildAdd(guild); err != nil {
		t.Fatalf("GuildAdd: %v", err)
	}
	return &discordgo.Session{State: st}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newPlaybackState builds a fresh per-guild playback state over the full
// voice catalogue.
func newPlaybackState() *playback.State {
	return playback.NewState(voices.Names())
}

func newResolver(st *storemock.Store) *pronounce.Resolver {
	return pronounce.NewResolver(st, discardLogger())
}

func newSynthClient(t *testing.T, provider *ttsmock.Provider) *synth.Client {
	t.Helper()
	c, err := synth.NewClient(provider, t.TempDir())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}
