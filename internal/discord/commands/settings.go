package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/discord"
	"github.com/spacegirl-bot/spacegirl/internal/voices"
	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

// SettingsCommands holds the dependencies for the /settings slash commands.
type SettingsCommands struct {
	prefs store.PreferenceStore
}

// NewSettingsCommands creates a SettingsCommands handler.
func NewSettingsCommands(prefs store.PreferenceStore) *SettingsCommands {
	return &SettingsCommands{prefs: prefs}
}

// Register registers the /settings command group with the router.
func (sc *SettingsCommands) Register(router *discord.CommandRouter) {
	def := sc.Definition()
	router.RegisterCommand("settings", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		discord.RespondEphemeral(s, i, "Please use a subcommand: `/settings voice`.")
	})
	router.RegisterHandler("settings/voice", sc.handleVoice)
}

// Definition returns the /settings ApplicationCommand for Discord
// registration.
func (sc *SettingsCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "settings",
		Description: "Personal Spacegirl settings",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "voice",
				Description: "Set or clear your default voice",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "voice",
						Description: "Default voice for /tts (omit to clear)",
						Type:        discordgo.ApplicationCommandOptionString,
						Choices:     voiceChoices(),
					},
				},
			},
		},
	}
}

func (sc *SettingsCommands) handleVoice(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sc.setVoice(s, i)
}

func (sc *SettingsCommands) setVoice(r discord.Responder, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		discord.RespondEphemeral(r, i, "Could not determine who you are.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	name := subcommandStringOption(i, "voice")
	if name == "" {
		if err := sc.prefs.SetUserVoice(ctx, userID, ""); err != nil {
			discord.RespondError(r, i, err)
			return
		}
		discord.RespondEphemeral(r, i, "Cleared your default voice.")
		return
	}

	v, err := voices.Resolve(name)
	if err != nil {
		discord.RespondEphemeral(r, i, fmt.Sprintf("Unknown voice %q.", name))
		return
	}

	if err := sc.prefs.SetUserVoice(ctx, userID, v.Name); err != nil {
		discord.RespondError(r, i, err)
		return
	}

	msg := fmt.Sprintf("Default voice set to **%s**.", v.Name)
	if v.NoSwearing {
		msg += " Heads up: this voice refuses to swear."
	}
	discord.RespondEphemeral(r, i, msg)
}
