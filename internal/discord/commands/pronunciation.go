package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/spacegirl-bot/spacegirl/internal/discord"
	"github.com/spacegirl-bot/spacegirl/internal/voices"
	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

const (
	overwriteConfirmPrefix = "pronunciation_overwrite:"
	overwriteCancelPrefix  = "pronunciation_cancel:"

	// storeTimeout bounds a single persistence round-trip.
	storeTimeout = 5 * time.Second

	// maxListFields is Discord's embed field limit.
	maxListFields = 25
)

// pendingOverwrite is a stashed add waiting for button confirmation.
type pendingOverwrite struct {
	guildID       string
	voice         string
	text          string
	pronunciation string
}

// PronunciationCommands holds the dependencies for the /pronunciation
// slash commands.
type PronunciationCommands struct {
	store store.PronunciationStore

	mu      sync.Mutex
	pending map[string]pendingOverwrite // confirmation ID → stashed add
}

// NewPronunciationCommands creates a PronunciationCommands handler.
func NewPronunciationCommands(st store.PronunciationStore) *PronunciationCommands {
	return &PronunciationCommands{
		store:   st,
		pending: make(map[string]pendingOverwrite),
	}
}

// Register registers the /pronunciation command group and its confirmation
// buttons with the router.
func (pc *PronunciationCommands) Register(router *discord.CommandRouter) {
	def := pc.Definition()
	router.RegisterCommand("pronunciation", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		discord.RespondEphemeral(s, i, "Please use a subcommand: `/pronunciation add`, `/pronunciation remove` or `/pronunciation list`.")
	})
	router.RegisterHandler("pronunciation/add", pc.handleAdd)
	router.RegisterHandler("pronunciation/remove", pc.handleRemove)
	router.RegisterHandler("pronunciation/list", pc.handleList)

	router.RegisterComponentPrefix(overwriteConfirmPrefix, pc.handleOverwriteConfirm)
	router.RegisterComponentPrefix(overwriteCancelPrefix, pc.handleOverwriteCancel)
}

// Definition returns the /pronunciation ApplicationCommand for Discord
// registration.
func (pc *PronunciationCommands) Definition() *discordgo.ApplicationCommand {
	voiceOpt := func(required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Name:        "voice",
			Description: "Voice the pronunciation applies to",
			Type:        discordgo.ApplicationCommandOptionString,
			Required:    required,
			Choices:     voiceScopeChoices(),
		}
	}
	globalOpt := &discordgo.ApplicationCommandOption{
		Name:        "global",
		Description: "Apply in every server instead of just this one",
		Type:        discordgo.ApplicationCommandOptionBoolean,
	}

	return &discordgo.ApplicationCommand{
		Name:        "pronunciation",
		Description: "Manage custom pronunciations",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "Add or update a pronunciation",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					voiceOpt(true),
					{
						Name:        "text",
						Description: "Text to replace",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
					{
						Name:        "pronunciation",
						Description: "What to say instead",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
					globalOpt,
				},
			},
			{
				Name:        "remove",
				Description: "Remove a pronunciation",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					voiceOpt(true),
					{
						Name:        "text",
						Description: "Text the pronunciation was added for",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
					globalOpt,
				},
			},
			{
				Name:        "list",
				Description: "List pronunciations for a voice",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					voiceOpt(true),
					globalOpt,
				},
			},
		},
	}
}

// scopeGuildID maps the global flag to the storage guild scope.
func scopeGuildID(i *discordgo.InteractionCreate) string {
	if subcommandBoolOption(i, "global") {
		return store.GlobalGuildID
	}
	return i.GuildID
}

// validVoiceScope reports whether name is a catalogue voice or the
// all-voices sentinel.
func validVoiceScope(name string) bool {
	if name == store.AllVoices {
		return true
	}
	_, err := voices.Resolve(name)
	return err == nil
}

func (pc *PronunciationCommands) handleAdd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	pc.add(s, i)
}

func (pc *PronunciationCommands) add(r discord.Responder, i *discordgo.InteractionCreate) {
	guildID := scopeGuildID(i)
	if guildID == "" {
		discord.RespondEphemeral(r, i, "This command only works in a server.")
		return
	}

	voice := subcommandStringOption(i, "voice")
	text := subcommandStringOption(i, "text")
	pronunciation := subcommandStringOption(i, "pronunciation")

	if !validVoiceScope(voice) {
		discord.RespondEphemeral(r, i, fmt.Sprintf("Unknown voice %q.", voice))
		return
	}
	if text == "" || pronunciation == "" {
		discord.RespondEphemeral(r, i, "Both text and pronunciation are required.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	existing, err := pc.store.GetPronunciation(ctx, guildID, voice, text)
	if err != nil {
		discord.RespondError(r, i, err)
		return
	}
	if existing != "" && existing != pronunciation {
		id := uuid.New().String()
		pc.mu.Lock()
		pc.pending[id] = pendingOverwrite{
			guildID:       guildID,
			voice:         voice,
			text:          text,
			pronunciation: pronunciation,
		}
		pc.mu.Unlock()

		discord.RespondConfirm(r, i,
			fmt.Sprintf("%q is already pronounced %q for %s. Overwrite with %q?", text, existing, voice, pronunciation),
			discordgo.Button{Label: "Overwrite", Style: discordgo.DangerButton, CustomID: overwriteConfirmPrefix + id},
			discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: overwriteCancelPrefix + id},
		)
		return
	}

	if err := pc.store.AddPronunciation(ctx, guildID, voice, text, pronunciation); err != nil {
		discord.RespondError(r, i, err)
		return
	}
	discord.RespondEphemeral(r, i, fmt.Sprintf("%q will be pronounced %q for %s.", text, pronunciation, voice))
}

func (pc *PronunciationCommands) handleOverwriteConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	pc.overwriteConfirm(s, i)
}

func (pc *PronunciationCommands) overwriteConfirm(r discord.Responder, i *discordgo.InteractionCreate) {
	id := strings.TrimPrefix(i.MessageComponentData().CustomID, overwriteConfirmPrefix)

	pc.mu.Lock()
	pending, ok := pc.pending[id]
	delete(pc.pending, id)
	pc.mu.Unlock()

	if !ok {
		discord.RespondUpdate(r, i, "This confirmation has expired. Run the command again.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := pc.store.AddPronunciation(ctx, pending.guildID, pending.voice, pending.text, pending.pronunciation); err != nil {
		discord.RespondUpdate(r, i, fmt.Sprintf("Error: %v", err))
		return
	}
	discord.RespondUpdate(r, i, fmt.Sprintf("%q will be pronounced %q for %s.", pending.text, pending.pronunciation, pending.voice))
}

func (pc *PronunciationCommands) handleOverwriteCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	pc.overwriteCancel(s, i)
}

func (pc *PronunciationCommands) overwriteCancel(r discord.Responder, i *discordgo.InteractionCreate) {
	id := strings.TrimPrefix(i.MessageComponentData().CustomID, overwriteCancelPrefix)

	pc.mu.Lock()
	delete(pc.pending, id)
	pc.mu.Unlock()

	discord.RespondUpdate(r, i, "Kept the existing pronunciation.")
}

func (pc *PronunciationCommands) handleRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	pc.remove(s, i)
}

func (pc *PronunciationCommands) remove(r discord.Responder, i *discordgo.InteractionCreate) {
	guildID := scopeGuildID(i)
	if guildID == "" {
		discord.RespondEphemeral(r, i, "This command only works in a server.")
		return
	}

	voice := subcommandStringOption(i, "voice")
	text := subcommandStringOption(i, "text")

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	removed, err := pc.store.RemovePronunciation(ctx, guildID, voice, text)
	if err != nil {
		discord.RespondError(r, i, err)
		return
	}
	if !removed {
		discord.RespondEphemeral(r, i, fmt.Sprintf("No pronunciation found for %q.", text))
		return
	}
	discord.RespondEphemeral(r, i, fmt.Sprintf("Removed the pronunciation for %q.", text))
}

func (pc *PronunciationCommands) handleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	pc.list(s, i)
}

func (pc *PronunciationCommands) list(r discord.Responder, i *discordgo.InteractionCreate) {
	guildID := scopeGuildID(i)
	if guildID == "" {
		discord.RespondEphemeral(r, i, "This command only works in a server.")
		return
	}

	voice := subcommandStringOption(i, "voice")

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	overrides, err := pc.store.ListPronunciations(ctx, guildID, voice)
	if err != nil {
		discord.RespondError(r, i, err)
		return
	}
	if len(overrides) == 0 {
		discord.RespondEphemeral(r, i, fmt.Sprintf("No pronunciations for %s.", voice))
		return
	}

	texts := make([]string, 0, len(overrides))
	for text := range overrides {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	fields := make([]*discordgo.MessageEmbedField, 0, maxListFields)
	for _, text := range texts {
		if len(fields) == maxListFields {
			break
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   text,
			Value:  overrides[text],
			Inline: true,
		})
	}

	scope := "this server"
	if guildID == store.GlobalGuildID {
		scope = "all servers"
	}
	title := fmt.Sprintf("Pronunciations for %s (%s)", voice, scope)
	if len(overrides) > maxListFields {
		title += fmt.Sprintf(" — first %d of %d", maxListFields, len(overrides))
	}

	discord.RespondEmbed(r, i, &discordgo.MessageEmbed{
		Title:  title,
		Fields: fields,
		Color:  0x5865F2,
	})
}
