package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/spacegirl-bot/spacegirl/internal/discord/mock"
	storemock "github.com/spacegirl-bot/spacegirl/pkg/store/mock"
)

func TestSettingsVoiceSet(t *testing.T) {
	t.Parallel()

	st := storemock.New()
	sc := NewSettingsCommands(st)
	r := &mock.InteractionResponder{}

	sc.setVoice(r, subInteraction("settings", "voice", opt("voice", "Jessie")))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "Jessie") {
		t.Fatalf("response = %+v", resp)
	}

	got, err := st.UserVoice(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("UserVoice: %v", err)
	}
	if got != "Jessie" {
		t.Errorf("stored voice = %q, want %q", got, "Jessie")
	}
}

func TestSettingsVoiceSetCanonicalizesCase(t *testing.T) {
	t.Parallel()

	st := storemock.New()
	sc := NewSettingsCommands(st)
	r := &mock.InteractionResponder{}

	sc.setVoice(r, subInteraction("settings", "voice", opt("voice", "jessie")))

	got, _ := st.UserVoice(context.Background(), testUserID)
	if got != "Jessie" {
		t.Errorf("stored voice = %q, want canonical %q", got, "Jessie")
	}
}

func TestSettingsVoiceClear(t *testing.T) {
	t.Parallel()

	st := storemock.New()
	if err := st.SetUserVoice(context.Background(), testUserID, "Marcus"); err != nil {
		t.Fatalf("SetUserVoice: %v", err)
	}
	sc := NewSettingsCommands(st)
	r := &mock.InteractionResponder{}

	sc.setVoice(r, subInteraction("settings", "voice"))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "Cleared") {
		t.Fatalf("response = %+v", resp)
	}

	got, _ := st.UserVoice(context.Background(), testUserID)
	if got != "" {
		t.Errorf("stored voice = %q, want cleared", got)
	}
}

func TestSettingsVoiceUnknown(t *testing.T) {
	t.Parallel()

	sc := NewSettingsCommands(storemock.New())
	r := &mock.InteractionResponder{}

	sc.setVoice(r, subInteraction("settings", "voice", opt("voice", "HAL 9000")))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "Unknown voice") {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSettingsVoiceNoSwearingNotice(t *testing.T) {
	t.Parallel()

	sc := NewSettingsCommands(storemock.New())
	r := &mock.InteractionResponder{}

	sc.setVoice(r, subInteraction("settings", "voice", opt("voice", "Pirate")))

	resp := r.LastResponse()
	if resp == nil || !strings.Contains(resp.Data.Content, "refuses to swear") {
		t.Fatalf("response = %+v", resp)
	}
}
