// Package roster matches OCR player names against the company member
// directory.
package roster

import (
	"sort"
	"strings"

	"github.com/veskur/warboard-bot/internal/domain"
)

// Normalizer produces the spelling variants a name should be matched under.
// The default handles the O/0 confusion of the scoreboard font; alternate
// strategies (edit distance, phonetic) can be swapped in without touching the
// aggregates.
type Normalizer interface {
	Variants(name string) []string
}

// OZeroNormalizer generates every O<->0 substitution variant of a name.
type OZeroNormalizer struct{}

func (OZeroNormalizer) Variants(name string) []string {
	variants := []string{name}
	if strings.ContainsAny(name, "oO") {
		variants = append(variants,
			strings.NewReplacer("o", "0", "O", "0").Replace(name))
	}
	if strings.Contains(name, "0") {
		variants = append(variants, strings.ReplaceAll(name, "0", "O"))
		variants = append(variants, strings.ReplaceAll(name, "0", "o"))
	}
	return variants
}

// Directory is an in-memory snapshot of member names. It holds no storage
// handle; callers supply the snapshot at construction time.
type Directory struct {
	names      []string
	normalizer Normalizer
}

// NewDirectory builds a directory over the given member records.
func NewDirectory(members []domain.MemberRecord, normalizer Normalizer) *Directory {
	if normalizer == nil {
		normalizer = OZeroNormalizer{}
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		if strings.TrimSpace(m.Player) != "" {
			names = append(names, m.Player)
		}
	}
	return &Directory{names: names, normalizer: normalizer}
}

// NewDirectoryFromNames is a convenience constructor for tests and roster
// reconciliation where only names are at hand.
func NewDirectoryFromNames(names []string, normalizer Normalizer) *Directory {
	members := make([]domain.MemberRecord, 0, len(names))
	for _, n := range names {
		members = append(members, domain.MemberRecord{Player: n})
	}
	return NewDirectory(members, normalizer)
}

// Names returns the canonical member names in the snapshot.
func (d *Directory) Names() []string {
	return append([]string(nil), d.names...)
}

// IsMember resolves an OCR candidate to a canonical member name.
//
// Exact match wins. Otherwise normalizer variants of both sides are compared;
// any variant-pair equality returns the canonical (non-substituted) member
// spelling. With partial enabled, prefix containment is tested both ways and
// only a single hit resolves — zero or several hits return no match, a guess
// is never made.
func (d *Directory) IsMember(candidate string, partial bool) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	for _, name := range d.names {
		if candidate == name {
			return name, true
		}
	}

	candidateVariants := d.normalizer.Variants(candidate)
	for _, name := range d.names {
		for _, nv := range d.normalizer.Variants(name) {
			for _, cv := range candidateVariants {
				if nv == cv {
					return name, true
				}
			}
		}
	}

	if !partial {
		return "", false
	}

	var hits []string
	for _, name := range d.names {
		if strings.HasPrefix(name, candidate) || strings.HasPrefix(candidate, name) {
			hits = append(hits, name)
		}
	}
	if len(hits) == 1 {
		return hits[0], true
	}
	return "", false
}

// Reconcile tests every distinct candidate with partial matching enabled and
// splits them into resolved canonical names and unmatched OCR strings.
// Canonical results that several OCR variants resolved to are deduplicated.
func (d *Directory) Reconcile(candidates []string) (matched, unmatched []string) {
	seenCandidate := make(map[string]struct{}, len(candidates))
	seenCanonical := make(map[string]struct{})
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seenCandidate[c]; dup {
			continue
		}
		seenCandidate[c] = struct{}{}

		name, ok := d.IsMember(c, true)
		if !ok {
			unmatched = append(unmatched, c)
			continue
		}
		if _, dup := seenCanonical[name]; dup {
			continue
		}
		seenCanonical[name] = struct{}{}
		matched = append(matched, name)
	}
	sort.Strings(matched)
	sort.Strings(unmatched)
	return matched, unmatched
}
