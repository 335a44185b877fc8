package dialect

import (
	"regexp"
	"strings"
)

// Rule is one substitution in a dialect's pattern table.
type Rule struct {
	match   string
	replace string
	re      *regexp.Regexp // nil for literal rules
}

// Literal replaces every occurrence of match with replace.
func Literal(match, replace string) Rule {
	return Rule{match: match, replace: replace}
}

// wordBoundary matches the same whitespace set as ECMAScript \s, so that
// no-break and thin spaces in pasted text end a word. RE2 \s is ASCII only.
const wordBoundary = `([\s\x{0B}\p{Zs}\x{2028}\x{2029}\x{FEFF}]|\?|$)`

// Word replaces root only when it is followed by whitespace, a question mark
// or the end of the text. The boundary itself is kept after the replacement.
func Word(root, replace string) Rule {
	re := regexp.MustCompile(regexp.QuoteMeta(root) + wordBoundary)
	return Rule{
		match:   root,
		replace: strings.ReplaceAll(replace, "$", "$$") + "${1}",
		re:      re,
	}
}

// Apply runs the rule over s, replacing all matches.
func (r Rule) Apply(s string) string {
	if r.re == nil {
		if r.match == "" {
			return s
		}
		return strings.ReplaceAll(s, r.match, r.replace)
	}
	return r.re.ReplaceAllString(s, r.replace)
}

// Match returns the text the rule looks for, without any boundary.
func (r Rule) Match() string { return r.match }

// Rules is an ordered pattern table.
type Rules []Rule

// Apply runs each rule in order, feeding each one the output of the previous.
func (rs Rules) Apply(s string) string {
	for _, r := range rs {
		s = r.Apply(s)
	}
	return s
}
