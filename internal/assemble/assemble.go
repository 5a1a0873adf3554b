// Package assemble places collected signature images into merged contract
// text.
//
// Each signed party is looked up first by its exact [[signature:label]] tag
// and, when the tag is missing, by an empty signature line (a run of
// underscores) following the party's printed name. Assemble must always be
// given freshly merged text: once a slot is filled there is nothing left to
// match on a second run.
package assemble

import (
	"regexp"
	"strings"

	"github.com/dmitrijs2005/leasekeeper/internal/lease"
)

// EmptySlot is printed where a signature has not been collected yet.
const EmptySlot = "____________________"

// fallbackWindow bounds how far after a printed name an empty slot may be.
const fallbackWindow = 500

// MatchKind says how a signature position was found.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExactTag
	MatchFallback
)

func (k MatchKind) String() string {
	switch k {
	case MatchExactTag:
		return "exact-tag"
	case MatchFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Match is the byte range of a signature position in the text.
type Match struct {
	Kind  MatchKind
	Start int
	End   int
}

// Signer is a party whose signature goes into the document.
type Signer struct {
	Label string
	Name  string
	// Image is a data URL; an empty Image leaves the slot empty.
	Image string
}

var (
	anyTagRe = regexp.MustCompile(`\[\[signature:[^\]\n]*\]\]`)
	slotRe   = regexp.MustCompile(`_{6,}`)
)

// FindExactTag locates the [[signature:label]] tag.
func FindExactTag(text, label string) Match {
	tag := lease.SignatureTag(label)
	if i := strings.Index(text, tag); i >= 0 {
		return Match{Kind: MatchExactTag, Start: i, End: i + len(tag)}
	}
	return Match{}
}

// FindFallback locates the first empty signature line that follows one of
// the party's printed names, looking no further than the next blank line.
// The emphasised form of the name produced by the merge is preferred over
// the plain one.
func FindFallback(text, name string) Match {
	name = strings.TrimSpace(name)
	if name == "" {
		return Match{}
	}
	if m := findSlotAfter(text, lease.Emphasize(name)); m.Kind != MatchNone {
		return m
	}
	return findSlotAfter(text, name)
}

func findSlotAfter(text, needle string) Match {
	offset := 0
	for {
		at := strings.Index(text[offset:], needle)
		if at < 0 {
			return Match{}
		}
		from := offset + at + len(needle)

		window := text[from:]
		if i := strings.Index(window, "\n\n"); i >= 0 {
			window = window[:i]
		}
		if len(window) > fallbackWindow {
			window = window[:fallbackWindow]
		}
		if loc := slotRe.FindStringIndex(window); loc != nil {
			return Match{Kind: MatchFallback, Start: from + loc[0], End: from + loc[1]}
		}
		offset = from
	}
}

// Locate tries the exact tag first and the fallback second.
func Locate(text string, s Signer) Match {
	if m := FindExactTag(text, s.Label); m.Kind != MatchNone {
		return m
	}
	return FindFallback(text, s.Name)
}

// Signature renders the markup that replaces a filled slot.
func Signature(s Signer) string {
	return "![" + s.Label + "](" + s.Image + ") " + strings.TrimSpace(s.Name)
}

// Assemble substitutes each signed party's image into the text and turns
// the remaining signature tags into empty slots. Parties whose position
// cannot be found are reported back.
func Assemble(text string, signers []Signer) (string, []Signer) {
	var missing []Signer
	for _, s := range signers {
		if s.Image == "" {
			continue
		}
		m := Locate(text, s)
		if m.Kind == MatchNone {
			missing = append(missing, s)
			continue
		}
		text = text[:m.Start] + Signature(s) + text[m.End:]
	}
	return anyTagRe.ReplaceAllString(text, EmptySlot), missing
}
