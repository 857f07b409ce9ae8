// Package commands implements the Spacegirl slash command handlers.
package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/voices"
	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

// interactionUserID returns the invoking user's ID. Guild interactions carry
// the user inside Member; DM interactions carry it directly.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// stringOption extracts a top-level string option value, or "" when absent.
func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// channelOption extracts a top-level channel option ID, or "" when absent.
func channelOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionChannel {
			// ChannelValue(nil) resolves the raw ID without a session lookup.
			if ch := opt.ChannelValue(nil); ch != nil {
				return ch.ID
			}
		}
	}
	return ""
}

// subcommandStringOption extracts a string option value from a subcommand
// interaction, or "" when absent.
func subcommandStringOption(i *discordgo.InteractionCreate, name string) string {
	data := i.ApplicationCommandData()
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		for _, opt := range data.Options[0].Options {
			if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
				return opt.StringValue()
			}
		}
	}
	return ""
}

// subcommandBoolOption extracts a boolean option value from a subcommand
// interaction, or false when absent.
func subcommandBoolOption(i *discordgo.InteractionCreate, name string) bool {
	data := i.ApplicationCommandData()
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		for _, opt := range data.Options[0].Options {
			if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionBoolean {
				return opt.BoolValue()
			}
		}
	}
	return false
}

// voiceChoices returns one option choice per catalogue voice, for use in
// command definitions.
func voiceChoices() []*discordgo.ApplicationCommandOptionChoice {
	names := voices.Names()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}
	return choices
}

// voiceScopeChoices is voiceChoices plus the all-voices sentinel, for the
// pronunciation commands.
func voiceScopeChoices() []*discordgo.ApplicationCommandOptionChoice {
	return append(voiceChoices(), &discordgo.ApplicationCommandOptionChoice{
		Name:  store.AllVoices,
		Value: store.AllVoices,
	})
}
