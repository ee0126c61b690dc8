// Package label defines the canonical three-way classification taxonomy and the
// normalizers that map heterogeneous source vocabularies onto it.
//
// Two normalization paths exist. Normalize is used when building training data
// and never fails: any token outside the synonym table degrades to Candidate.
// NormalizeToken is used when re-normalizing a live model response and passes
// unrecognized non-empty tokens through in cleaned form.
package label

import (
	"fmt"
	"strings"
)

// Label is one of the three canonical classes.
type Label string

const (
	Planet    Label = "planet"
	NonPlanet Label = "non_planet"
	Candidate Label = "candidate"
)

// Unrecognized is the class assigned at training time to tokens outside the synonym table.
const Unrecognized = Candidate

// All lists the canonical labels in their fixed order.
var All = []Label{Planet, NonPlanet, Candidate}

var synonyms = map[string]Label{
	"confirmed":      Planet,
	"planet":         Planet,
	"false positive": NonPlanet,
	"false_positive": NonPlanet,
	"refuted":        NonPlanet,
	"not planet":     NonPlanet,
	"not_planet":     NonPlanet,
	"non_planet":     NonPlanet,
	"nonplanet":      NonPlanet,
	"notplanet":      NonPlanet,
	"candidate":      Candidate,
	"cand":           Candidate,
}

// UnknownLabelError reports a token that is not in the synonym table.
type UnknownLabelError struct {
	Token string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label %q", e.Token)
}

// Valid reports whether l is one of the canonical labels.
func (l Label) Valid() bool {
	switch l {
	case Planet, NonPlanet, Candidate:
		return true
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// Index returns the position of l in All, or -1.
func (l Label) Index() int {
	for i, c := range All {
		if c == l {
			return i
		}
	}
	return -1
}

// clean lowercases and trims a token, maps hyphens to underscores and collapses
// runs of inner whitespace to a single space.
func clean(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.Join(strings.Fields(s), " ")
}

// Parse maps a raw token onto a canonical label, failing on tokens outside the synonym table.
func Parse(raw string) (Label, error) {
	if l, ok := synonyms[clean(raw)]; ok {
		return l, nil
	}
	return "", &UnknownLabelError{Token: raw}
}

// Normalize maps a raw training label onto the taxonomy. It never fails.
func Normalize(raw string) Label {
	l, err := Parse(raw)
	if err != nil {
		return Unrecognized
	}
	return l
}

// NormalizeToken re-normalizes a label string arriving from a model response.
// Empty input yields "", recognized tokens yield the canonical name, anything
// else is returned lowercased and trimmed with hyphens as underscores. Inner
// whitespace of unrecognized tokens is kept as is.
func NormalizeToken(raw string) string {
	s := clean(raw)
	if s == "" {
		return ""
	}
	if l, ok := synonyms[s]; ok {
		return string(l)
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
}
