package notes

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var percentOctets = regexp.MustCompile(`%[a-fA-F0-9]{2}`)

const maxPasses = 8

// Sanitizer reduces arbitrary input to a single line of plain text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer that strips every HTML element.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips tags, drops control characters and line breaks, collapses
// whitespace, removes percent-encoded octets and trims the result. Invalid
// UTF-8 input yields an empty string.
func (s *Sanitizer) Sanitize(input string) string {
	if !utf8.ValidString(input) {
		return ""
	}

	text := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			if unicode.IsSpace(r) {
				return ' '
			}
			return -1
		}
		return r
	}, input)

	// Stripping tags or octets can splice a new tag together, so both run
	// until the text stops changing.
	for pass := 0; pass < maxPasses; pass++ {
		next := percentOctets.ReplaceAllString(s.stripTags(text), "")
		if next == text {
			break
		}
		text = next
	}

	return strings.Join(strings.Fields(text), " ")
}

// stripTags removes markup. Ampersands are escaped before the policy runs, so
// entities in the input come back as typed and never decode into tags.
func (s *Sanitizer) stripTags(text string) string {
	return html.UnescapeString(s.policy.Sanitize(strings.ReplaceAll(text, "&", "&amp;")))
}
