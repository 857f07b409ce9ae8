package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func commandInteraction(name, sub string) *discordgo.InteractionCreate {
	data := discordgo.ApplicationCommandInteractionData{Name: name}
	if sub != "" {
		data.Options = []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand},
		}
	}
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: data,
		},
	}
}

func componentInteraction(customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionMessageComponent,
			Data: discordgo.MessageComponentInteractionData{CustomID: customID},
		},
	}
}

func TestRouterDispatchesCommand(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	var called bool
	r.RegisterCommand("tts", &discordgo.ApplicationCommand{Name: "tts"}, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		called = true
	})

	r.Handle(nil, commandInteraction("tts", ""))
	if !called {
		t.Error("registered handler was not invoked")
	}
}

func TestRouterDispatchesSubcommand(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	var got string
	r.RegisterCommand("pronunciation", &discordgo.ApplicationCommand{Name: "pronunciation"}, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "top"
	})
	r.RegisterHandler("pronunciation/add", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "add"
	})

	r.Handle(nil, commandInteraction("pronunciation", "add"))
	if got != "add" {
		t.Errorf("dispatched to %q, want %q", got, "add")
	}
}

func TestRouterDispatchesComponent(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	var called bool
	r.RegisterComponent("confirm", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		called = true
	})

	r.Handle(nil, componentInteraction("confirm"))
	if !called {
		t.Error("component handler was not invoked")
	}
}

func TestRouterComponentPrefixFallback(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	var gotID string
	r.RegisterComponentPrefix("pronunciation_overwrite:", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		gotID = i.MessageComponentData().CustomID
	})

	r.Handle(nil, componentInteraction("pronunciation_overwrite:abc-123"))
	if gotID != "pronunciation_overwrite:abc-123" {
		t.Errorf("custom ID = %q", gotID)
	}
}

func TestRouterExactComponentWinsOverPrefix(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	var got string
	r.RegisterComponent("pick:exact", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "exact"
	})
	r.RegisterComponentPrefix("pick:", func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		got = "prefix"
	})

	r.Handle(nil, componentInteraction("pick:exact"))
	if got != "exact" {
		t.Errorf("dispatched to %q, want exact match", got)
	}
}

func TestApplicationCommandsDeduplicated(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	def := &discordgo.ApplicationCommand{Name: "voice"}
	r.RegisterCommand("voice/join", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {})
	r.RegisterCommand("voice/leave", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {})
	r.RegisterHandler("voice/extra", func(s *discordgo.Session, i *discordgo.InteractionCreate) {})

	cmds := r.ApplicationCommands()
	if len(cmds) != 1 {
		t.Fatalf("ApplicationCommands returned %d definitions, want 1", len(cmds))
	}
	if cmds[0].Name != "voice" {
		t.Errorf("command name = %q", cmds[0].Name)
	}
}

func TestInteractionKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		i    *discordgo.InteractionCreate
		want string
	}{
		{"top level", commandInteraction("tts", ""), "tts"},
		{"subcommand", commandInteraction("settings", "voice"), "settings/voice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := interactionKey(tt.i.ApplicationCommandData())
			if got != tt.want {
				t.Errorf("interactionKey = %q, want %q", got, tt.want)
			}
		})
	}
}
