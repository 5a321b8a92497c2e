// Package entity pulls structured values out of a raw utterance with a
// fixed, ordered set of pattern rules.
package entity

import (
	"regexp"
	"sort"
	"strings"
)

type Kind string

const (
	OrderNumber Kind = "order_number"
	Date        Kind = "date"
	Time        Kind = "time"
	Email       Kind = "email"
	Phone       Kind = "phone"
	Name        Kind = "name"
)

// Kinds lists every kind in extraction order.
var Kinds = []Kind{OrderNumber, Date, Time, Email, Phone, Name}

var (
	orderPattern = regexp.MustCompile(`\b[A-Z0-9]{6,12}\b`)

	// tried in order; the first pattern with any match wins
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?\b`),
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}

	timePattern  = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)?\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?(\d{3})\)?[-.\s]?(\d{3})[-.\s]?(\d{4})\b`)
	namePattern  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// Bag maps an entity kind to the single value found for it.
type Bag map[string]string

func (b Bag) Get(k Kind) (string, bool) {
	v, ok := b[string(k)]
	return v, ok
}

// HasAny reports whether at least one of kinds is present.
func (b Bag) HasAny(kinds ...string) bool {
	for _, k := range kinds {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Params copies the bag into a tool parameter map.
func (b Bag) Params() map[string]interface{} {
	out := make(map[string]interface{}, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Keys returns the present kinds sorted by name.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Extract never fails; an utterance with nothing recognizable yields an
// empty bag.
func Extract(text string) Bag {
	bag := Bag{}

	if m := orderPattern.FindString(strings.ToUpper(text)); m != "" {
		bag[string(OrderNumber)] = m
	}

	var excluded []span
	for _, p := range datePatterns {
		locs := p.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		bag[string(Date)] = strings.ToLower(text[locs[0][0]:locs[0][1]])
		excluded = append(excluded, toSpans(locs)...)
		break
	}

	if m := timePattern.FindString(text); m != "" {
		bag[string(Time)] = strings.TrimSpace(strings.ToLower(m))
	}

	if locs := emailPattern.FindAllStringIndex(text, -1); len(locs) > 0 {
		bag[string(Email)] = text[locs[0][0]:locs[0][1]]
		excluded = append(excluded, toSpans(locs)...)
	}

	if m := phonePattern.FindStringSubmatch(text); m != nil {
		bag[string(Phone)] = m[1] + "-" + m[2] + "-" + m[3]
	}

	for _, loc := range namePattern.FindAllStringIndex(text, -1) {
		s := span{loc[0], loc[1]}
		if s.end-s.start <= 2 || overlapsAny(s, excluded) {
			continue
		}
		bag[string(Name)] = text[s.start:s.end]
		break
	}

	return bag
}

func toSpans(locs [][]int) []span {
	out := make([]span, len(locs))
	for i, l := range locs {
		out[i] = span{l[0], l[1]}
	}
	return out
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}
