// Package pronounce normalizes message text before synthesis.
//
// Resolution runs a fixed pipeline: emoji are replaced by their spoken
// names, whitespace is collapsed, custom per-scope overrides apply in
// priority order, and a table of provider fixups cleans up abbreviations
// the backend voices mispronounce. Resolve is total: it never fails, and
// store errors only cost the affected override tier.
package pronounce

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/forPelevin/gomoji"

	"github.com/spacegirl-bot/spacegirl/pkg/store"
)

// sentinel delimits emoji name tokens between pipeline steps. NUL cannot
// appear in Discord message content.
const sentinel = "\x00"

// Resolver normalizes raw message text for a given voice and guild scope.
type Resolver struct {
	store  store.PronunciationStore
	logger *slog.Logger
	fixups []compiledFixup
}

// NewResolver creates a Resolver backed by the given override store.
func NewResolver(st store.PronunciationStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  st,
		logger: logger,
		fixups: compileFixups(fixupTable),
	}
}

// Resolve normalizes raw text for synthesis with the given voice in the
// given guild. It always returns a usable string; an empty result is valid.
func (r *Resolver) Resolve(ctx context.Context, raw, voice, guildID string) string {
	text := stripVariationSelectors(raw)
	text = replaceEmoji(text)
	text = collapseWhitespace(text)
	text = r.applyOverrides(ctx, text, voice, guildID)
	for _, f := range r.fixups {
		text = f.pattern.ReplaceAllString(text, f.replacement)
	}
	// A bare "no" gets read as a digit by the provider.
	if strings.EqualFold(text, "no") {
		text += "."
	}
	return text
}

// stripVariationSelectors removes the U+FE00..U+FE0F codepoints that select
// emoji presentation; they otherwise survive as stray runes after emoji
// replacement.
func stripVariationSelectors(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0xFE00 && r <= 0xFE0F {
			return -1
		}
		return r
	}, s)
}

// replaceEmoji substitutes every emoji with its spoken name followed by
// "emoji". Consecutive occurrences of the same emoji collapse into a single
// pluralized "<name> emojis".
func replaceEmoji(s string) string {
	if !gomoji.ContainsEmoji(s) {
		return s
	}

	// Mark each emoji with a single sentinel-wrapped slug token so runs can
	// be detected after tokenization. Slugs keep their dashes here so a
	// multi-word name stays one token.
	marked := gomoji.ReplaceEmojisWithFunc(s, func(em gomoji.Emoji) string {
		return " " + sentinel + em.Slug + sentinel + " "
	})

	fields := strings.Fields(marked)
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		slug, ok := sentinelSlug(fields[i])
		if !ok {
			out = append(out, fields[i])
			continue
		}
		run := 1
		for i+run < len(fields) {
			next, ok := sentinelSlug(fields[i+run])
			if !ok || next != slug {
				break
			}
			run++
		}
		i += run - 1

		noun := "emoji"
		if run > 1 {
			noun = "emojis"
		}
		out = append(out, spokenName(slug), noun)
	}
	return strings.Join(out, " ")
}

// sentinelSlug extracts the slug from a sentinel token, reporting whether the
// field is one.
func sentinelSlug(field string) (string, bool) {
	if len(field) < 2 || !strings.HasPrefix(field, sentinel) || !strings.HasSuffix(field, sentinel) {
		return "", false
	}
	return field[1 : len(field)-1], true
}

// spokenName turns an emoji slug into its spoken form. The "face with"
// connective is dropped so "smiling face with heart eyes" reads as "smiling
// heart eyes".
func spokenName(slug string) string {
	name := strings.ReplaceAll(slug, "-", " ")
	name = strings.ReplaceAll(name, "face with ", "")
	return strings.TrimSpace(name)
}

// collapseWhitespace reduces whitespace runs to single spaces and trims the
// ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// overrideTiers returns the scope lookup order: guild-specific beats global,
// voice-specific beats all-voices.
func overrideTiers(voice, guildID string) [][2]string {
	return [][2]string{
		{guildID, voice},
		{guildID, store.AllVoices},
		{store.GlobalGuildID, voice},
		{store.GlobalGuildID, store.AllVoices},
	}
}

// applyOverrides applies every custom override tier in priority order. Each
// tier is a sequential literal substitution over the whole text, so earlier
// tiers can create or destroy matches for later ones. A failing tier is
// logged and skipped.
func (r *Resolver) applyOverrides(ctx context.Context, text, voice, guildID string) string {
	for _, tier := range overrideTiers(voice, guildID) {
		overrides, err := r.store.ListPronunciations(ctx, tier[0], tier[1])
		if err != nil {
			r.logger.Warn("skipping pronunciation tier",
				"guild_id", tier[0], "voice", tier[1], "error", err)
			continue
		}

		triggers := make([]string, 0, len(overrides))
		for trigger := range overrides {
			triggers = append(triggers, trigger)
		}
		sort.Strings(triggers)

		for _, trigger := range triggers {
			text = strings.ReplaceAll(text, trigger, overrides[trigger])
		}
	}
	return text
}
