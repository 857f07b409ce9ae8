package pronounce

import "regexp"

// Fixup is one entry of the provider fixup table: a trigger that the backend
// voices consistently mispronounce, mapped to a speakable replacement.
type Fixup struct {
	// Trigger is matched literally unless Regex is set.
	Trigger string
	// Regex marks Trigger as a regular expression instead of a literal.
	Regex bool
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
	// Replacement substitutes every match.
	Replacement string
}

// fixupTable lists the known mispronunciations, applied in order. Order
// matters for the emoticons: ">:(" must run before ":(" or the angry face
// loses its brow.
var fixupTable = []Fixup{
	{Trigger: "lol", Replacement: "lawl"},
	{Trigger: "uwu", Replacement: "ooh woo"},
	{Trigger: ":3", Replacement: "colon three"},
	{Trigger: "minecraft", Replacement: "mine craft"},
	{Trigger: "lmao", Replacement: "LMAO"},
	{Trigger: "labubu", Replacement: "luh booboo"},
	{Trigger: "bros", Replacement: "bro's"},
	{Trigger: "pls", Replacement: "please"},
	{Trigger: "brb", Replacement: "b r b"},
	{Trigger: ">:(", Replacement: "angry face"},
	{Trigger: ":)", Replacement: "smiley face"},
	{Trigger: ":(", Replacement: "sad face"},
	{Trigger: ":o", Replacement: "shocked face"},
	{Trigger: "D:", Replacement: "big shocked face"},
	{Trigger: ":D", Replacement: "big smile face"},
	{Trigger: "<3", Replacement: "heart"},
	{Trigger: "regex", Replacement: "regh ex"},
}

// compiledFixup pairs a table entry with its compiled pattern.
type compiledFixup struct {
	pattern     *regexp.Regexp
	replacement string
}

// compileFixups turns the table into regexps, quoting literal triggers.
func compileFixups(table []Fixup) []compiledFixup {
	out := make([]compiledFixup, 0, len(table))
	for _, f := range table {
		expr := f.Trigger
		if !f.Regex {
			expr = regexp.QuoteMeta(expr)
		}
		if !f.CaseSensitive {
			expr = "(?i)" + expr
		}
		out = append(out, compiledFixup{
			pattern:     regexp.MustCompile(expr),
			replacement: f.Replacement,
		})
	}
	return out
}
