package structure

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackAnchor is used when a heading has no alphanumeric characters.
const fallbackAnchor = "section"

// Slugify lower-cases s, folds accented letters to their base letter and
// collapses every run of other characters into a single hyphen.
func Slugify(s string) string {
	// transformers carry state, so build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Anchors hands out unique heading anchors for one document. Repeats of the
// same slug get -1, -2, ... suffixes. Not safe for concurrent use.
type Anchors struct {
	used map[string]bool
	next map[string]int
}

// NewAnchors returns an empty anchor set.
func NewAnchors() *Anchors {
	return &Anchors{used: map[string]bool{}, next: map[string]int{}}
}

// Next derives the anchor for plain heading text and claims it.
func (a *Anchors) Next(text string) string {
	base := Slugify(text)
	if base == "" {
		base = fallbackAnchor
	}
	return a.claim(base)
}

// Reserve marks an explicit id as taken.
func (a *Anchors) Reserve(id string) {
	a.used[id] = true
}

func (a *Anchors) claim(base string) string {
	if !a.used[base] {
		a.used[base] = true
		return base
	}
	for n := a.next[base] + 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !a.used[candidate] {
			a.used[candidate] = true
			a.next[base] = n
			return candidate
		}
	}
}
