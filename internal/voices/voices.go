// Package voices holds the built-in voice catalogue.
//
// Each entry maps a user-facing display name (shown in slash command options)
// to the provider voice identifier sent with synthesis requests.
package voices

import (
	"fmt"
	"sort"
	"strings"
)

// Voice is one entry of the catalogue.
type Voice struct {
	// Name is the user-facing display name, e.g. "Ghost Host".
	Name string
	// ID is the provider voice identifier, e.g. "tt-en_male_ghosthost".
	ID string
	// NoSwearing marks voices whose provider backend rejects profanity.
	NoSwearing bool
}

// ErrUnknown is returned by Resolve when the requested name is not in the
// catalogue.
var ErrUnknown = fmt.Errorf("voices: unknown voice")

// catalogue is the fixed set of supported voices.
var catalogue = []Voice{
	{Name: "Marcus", ID: "tt-en_male_narration"},
	{Name: "Jessie", ID: "tt-en_us_002"},
	{Name: "Joey", ID: "tt-en_us_006"},
	{Name: "Trevor", ID: "tt-en_male_trevor"},
	{Name: "Cupid", ID: "tt-en_male_cupid"},
	{Name: "Commentator", ID: "tt-en_male_jomboy"},
	{Name: "Ghost Host", ID: "tt-en_male_ghosthost", NoSwearing: true},
	{Name: "Grandma", ID: "tt-en_female_grandma"},
	{Name: "Lord Cringe", ID: "tt-en_male_ukneighbor"},
	{Name: "Madam Leota", ID: "tt-en_female_madam_leota", NoSwearing: true},
	{Name: "Pirate", ID: "tt-en_male_pirate", NoSwearing: true},
	{Name: "Santa", ID: "tt-en_male_santa_effect"},
	{Name: "Funny", ID: "tt-en_male_funny"},
	{Name: "Grinch", ID: "tt-en_male_grinch"},
	{Name: "C3PO", ID: "tt-en_us_c3po", NoSwearing: true},
	{Name: "Ghostface", ID: "tt-en_us_ghostface"},
	{Name: "Rocket", ID: "tt-en_us_rocket", NoSwearing: true},
	{Name: "Stitch", ID: "tt-en_us_stitch", NoSwearing: true},
}

// byName indexes the catalogue case-insensitively.
var byName = func() map[string]Voice {
	m := make(map[string]Voice, len(catalogue))
	for _, v := range catalogue {
		m[strings.ToLower(v.Name)] = v
	}
	return m
}()

// Resolve looks up a voice by display name, case-insensitively. It returns
// ErrUnknown when the name is not in the catalogue.
func Resolve(name string) (Voice, error) {
	v, ok := byName[strings.ToLower(name)]
	if !ok {
		return Voice{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return v, nil
}

// Names returns all display names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for _, v := range catalogue {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the catalogue in declaration order.
func All() []Voice {
	out := make([]Voice, len(catalogue))
	copy(out, catalogue)
	return out
}
