package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/discord"
	"github.com/spacegirl-bot/spacegirl/internal/playback"
	"github.com/spacegirl-bot/spacegirl/internal/voicemgr"
)

// VoiceCommands holds the dependencies for the /join and /leave slash commands.
type VoiceCommands struct {
	state *playback.State
	mgr   *voicemgr.Manager
}

// NewVoiceCommands creates a VoiceCommands handler.
func NewVoiceCommands(state *playback.State, mgr *voicemgr.Manager) *VoiceCommands {
	return &VoiceCommands{state: state, mgr: mgr}
}

// Register registers /join and /leave with the router.
func (vc *VoiceCommands) Register(router *discord.CommandRouter) {
	router.RegisterCommand("join", vc.JoinDefinition(), vc.handleJoin)
	router.RegisterCommand("leave", vc.LeaveDefinition(), vc.handleLeave)
}

// JoinDefinition returns the /join ApplicationCommand.
func (vc *VoiceCommands) JoinDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "join",
		Description: "Join a voice channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         "channel",
				Description:  "Voice channel to join (defaults to yours)",
				Type:         discordgo.ApplicationCommandOptionChannel,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
			},
		},
	}
}

// LeaveDefinition returns the /leave ApplicationCommand.
func (vc *VoiceCommands) LeaveDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "leave",
		Description: "Leave the current voice channel",
	}
}

func (vc *VoiceCommands) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	vc.join(s, s, i)
}

func (vc *VoiceCommands) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	vc.leave(s, i)
}

func (vc *VoiceCommands) join(sess *discordgo.Session, r discord.Responder, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	if guildID == "" {
		discord.RespondEphemeral(r, i, "This command only works in a server.")
		return
	}
	vc.state.InitGuild(guildID)

	channelID := channelOption(i, "channel")
	if channelID == "" {
		vs, err := sess.State.VoiceState(guildID, interactionUserID(i))
		if err != nil || vs == nil || vs.ChannelID == "" {
			discord.RespondEphemeral(r, i, "Join a voice channel first, or name one.")
			return
		}
		channelID = vs.ChannelID
	}

	if err := vc.mgr.Join(context.Background(), guildID, channelID); err != nil {
		if errors.Is(err, voicemgr.ErrAlreadyConnected) {
			discord.RespondEphemeral(r, i, "I'm already in a voice channel here. Use `/leave` first.")
			return
		}
		discord.RespondError(r, i, err)
		return
	}

	vc.state.SetLastTriggered(guildID, i.ChannelID)
	discord.RespondEphemeral(r, i, fmt.Sprintf("Joined <#%s>.", channelID))
}

func (vc *VoiceCommands) leave(r discord.Responder, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	if guildID == "" {
		discord.RespondEphemeral(r, i, "This command only works in a server.")
		return
	}

	if err := vc.mgr.Leave(guildID); err != nil {
		if errors.Is(err, voicemgr.ErrNotConnected) {
			discord.RespondEphemeral(r, i, "I'm not in a voice channel.")
			return
		}
		discord.RespondError(r, i, err)
		return
	}

	discord.RespondEphemeral(r, i, "Left the voice channel.")
}
