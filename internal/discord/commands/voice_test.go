package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/spacegirl-bot/spacegirl/internal/discord/mock"
	"github.com/spacegirl-bot/spacegirl/internal/voicemgr"
	voicemock "github.com/spacegirl-bot/spacegirl/pkg/voice/mock"
)

func newVoiceFixture() (*VoiceCommands, *voicemock.Platform, *voicemgr.Manager) {
	platform := &voicemock.Platform{ConnectResult: &voicemock.Connection{}}
	state := newPlaybackState()
	mgr := voicemgr.New(state, platform, discardLogger())
	return NewVoiceCommands(state, mgr), platform, mgr
}

func channelOptValue(id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "channel",
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: id,
	}
}

func TestJoinExplicitChannel(t *testing.T) {
	t.Parallel()

	vc, platform, _ := newVoiceFixture()
	r := &mock.InteractionResponder{}

	vc.join(newTestSession(t, false), r, guildInteraction("join", channelOptValue("vc-9")))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "vc-9") {
		t.Fatalf("response = %+v", resp)
	}
	if len(platform.ConnectCalls) != 1 || platform.ConnectCalls[0].ChannelID != "vc-9" {
		t.Errorf("connect calls = %+v", platform.ConnectCalls)
	}
}

func TestJoinDefaultsToRequesterChannel(t *testing.T) {
	t.Parallel()

	vc, platform, _ := newVoiceFixture()
	r := &mock.InteractionResponder{}

	vc.join(newTestSession(t, true), r, guildInteraction("join"))

	if len(platform.ConnectCalls) != 1 || platform.ConnectCalls[0].ChannelID != testVoiceChan {
		t.Errorf("connect calls = %+v", platform.ConnectCalls)
	}
}

func TestJoinWithoutChannelOrVoiceState(t *testing.T) {
	t.Parallel()

	vc, platform, _ := newVoiceFixture()
	r := &mock.InteractionResponder{}

	vc.join(newTestSession(t, false), r, guildInteraction("join"))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "voice channel") {
		t.Fatalf("response = %+v", resp)
	}
	if len(platform.ConnectCalls) != 0 {
		t.Error("no connect attempt expected")
	}
}

func TestJoinAlreadyConnected(t *testing.T) {
	t.Parallel()

	vc, _, mgr := newVoiceFixture()
	if err := mgr.Join(context.Background(), testGuildID, "vc-9"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	r := &mock.InteractionResponder{}

	vc.join(newTestSession(t, false), r, guildInteraction("join", channelOptValue("vc-9")))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "already") {
		t.Fatalf("response = %+v", resp)
	}
}

func TestLeave(t *testing.T) {
	t.Parallel()

	vc, _, mgr := newVoiceFixture()
	if err := mgr.Join(context.Background(), testGuildID, "vc-9"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	r := &mock.InteractionResponder{}

	vc.leave(r, guildInteraction("leave"))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "Left") {
		t.Fatalf("response = %+v", resp)
	}
}

func TestLeaveWhenNotConnected(t *testing.T) {
	t.Parallel()

	vc, _, _ := newVoiceFixture()
	r := &mock.InteractionResponder{}

	vc.leave(r, guildInteraction("leave"))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "not in a voice channel") {
		t.Fatalf("response = %+v", resp)
	}
}
