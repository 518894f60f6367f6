package search

import (
	"regexp"
	"strings"
	"time"
)

var (
	scriptOrStyle = regexp.MustCompile(`(?is)<(script|style)[^>]*?>.*?</(script|style)>`)
	percentOctet  = regexp.MustCompile(`%[a-fA-F0-9]{2}`)

	// A tag opens with a letter, "/", "!" or "?" and closes before any other "<".
	// Other "<" characters ("under <3000", "price < 150") are text.
	htmlTag = regexp.MustCompile(`<[a-zA-Z/!?][^<>]*>`)
)

// Sanitize reduces free text from a form field to a single plain line:
// invalid UTF-8, HTML tags, percent-encoded octets and control characters
// are removed and runs of whitespace collapse to one space. A "<" that does
// not start a closed tag is kept.
func Sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = scriptOrStyle.ReplaceAllString(s, "")
	s = htmlTag.ReplaceAllString(s, "")

	// Repeat until stable so "%2%41" cannot reassemble an octet
	for {
		stripped := percentOctet.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// WithDate appends the current UTC date so the assistant can resolve
// relative dates like "next month"
func WithDate(query string, now time.Time) string {
	return query + " Current date is " + now.UTC().Format("2006-01-02")
}
