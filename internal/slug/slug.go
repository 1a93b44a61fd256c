package slug

import (
	"regexp"
	"strings"
	"unicode"
)

// Whitespace as browsers see it: ASCII spaces, vertical tab, Unicode separators and BOM.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
var nonSlugChars = regexp.MustCompile(`[^\w-]+`) // \w is ASCII [0-9A-Za-z_]

// Derive creates a URL-safe slug from a title: lowercase, whitespace runs become a
// single hyphen, and every character that is not a word character or hyphen is dropped.
// Surrounding whitespace is ignored.
func Derive(title string) string {
	s := strings.ToLower(strings.TrimFunc(title, isSpace))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// Valid reports whether s is already in derived form and non-empty.
func Valid(s string) bool {
	return s != "" && Derive(s) == s
}

// Latch tracks whether the slug of the item being composed was set by hand.
// While unlatched every title edit regenerates the slug.
type Latch struct {
	manual bool
}

// OnTitle returns the slug to keep after the title changed to title.
func (l *Latch) OnTitle(title, current string) string {
	if l.manual {
		return current
	}
	return Derive(title)
}

// OnSlug records a direct slug edit and returns the normalised value.
func (l *Latch) OnSlug(input string) string {
	l.manual = true
	return Derive(input)
}

// Lock marks the slug as final, e.g. when an existing page is opened for editing.
func (l *Latch) Lock() {
	l.manual = true
}

// Reset clears the latch when the compose form is cancelled or submitted.
func (l *Latch) Reset() {
	l.manual = false
}

// Manual reports whether the slug has been overridden.
func (l *Latch) Manual() bool {
	return l.manual
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
