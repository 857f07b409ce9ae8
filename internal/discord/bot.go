// Package discord provides the Discord gateway layer for Spacegirl. It owns
// the discordgo.Session lifecycle, registers global slash commands, and
// routes interactions to registered handlers.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/pkg/voice"
	voicediscord "github.com/spacegirl-bot/spacegirl/pkg/voice/discord"
)

// Bot owns the Discord gateway connection and routes interactions
// to registered command handlers.
type Bot struct {
	mu        sync.RWMutex
	session   *discordgo.Session
	platform  *voicediscord.Platform
	router    *CommandRouter
	commands  []*discordgo.ApplicationCommand
	closeOnce sync.Once
}

// New creates a Bot for the given token. The gateway connection is not
// opened until [Bot.Run]; handlers registered on the session before Run
// therefore see every gateway event from the start.
func New(token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers

	b := &Bot{
		session:  session,
		platform: voicediscord.New(session),
		router:   NewCommandRouter(),
	}

	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.router.Handle(s, i)
	})

	return b, nil
}

// Platform returns the voice.Platform for voice channel connections.
func (b *Bot) Platform() voice.Platform {
	return b.platform
}

// Session returns the underlying discordgo session. Used to register
// gateway event handlers and by subsystems needing direct API access.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Router returns the command router for registering handlers.
func (b *Bot) Router() *CommandRouter {
	return b.router
}

// Run opens the gateway connection, registers the router's slash commands
// globally, and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}

	appID := b.session.State.User.ID
	cmds := b.router.ApplicationCommands()
	if len(cmds) > 0 {
		// Empty guild ID registers the commands globally.
		registered, err := b.session.ApplicationCommandBulkOverwrite(appID, "", cmds)
		if err != nil {
			return fmt.Errorf("discord: register commands: %w", err)
		}
		b.mu.Lock()
		b.commands = registered
		b.mu.Unlock()
		slog.Info("discord commands registered", "count", len(registered))
	}

	<-ctx.Done()
	return nil
}

// Close disconnects from Discord and unregisters commands.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if len(b.commands) > 0 {
			appID := b.session.State.User.ID
			for _, cmd := range b.commands {
				if err := b.session.ApplicationCommandDelete(appID, "", cmd.ID); err != nil {
					slog.Warn("discord: failed to delete command", "name", cmd.Name, "err", err)
				}
			}
		}

		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("discord: close session: %w", err)
		}

		slog.Info("discord bot closed")
	})
	return closeErr
}
