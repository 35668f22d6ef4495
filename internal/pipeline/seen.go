// =============================================================================
// seen.go - link normalization and the persisted seen-set
// =============================================================================
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// NormalizeLink reduces a URL to its dedup identity: tracking query strings
// and fragments are dropped and a single trailing slash is enforced, so
// "https://x/job/1?ref=rss" and "https://x/job/1/" collapse to the same key.
func NormalizeLink(raw string) string {
	link := strings.TrimSpace(raw)
	if link == "" {
		return ""
	}
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	return strings.TrimRight(link, "/") + "/"
}

// SeenSet is the persisted set of normalized links already delivered by a
// pipeline. On disk it is a flat JSON array of strings.
type SeenSet struct {
	path  string
	links map[string]bool
}

// LoadSeenSet reads the set at path. A missing or unreadable file yields an
// empty set, as does reset, so a fresh or wiped state never blocks a run.
func LoadSeenSet(path string, reset bool) *SeenSet {
	s := &SeenSet{path: path, links: map[string]bool{}}
	if reset {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		warnf("seen-set %s is corrupt, starting empty: %v", path, err)
		return s
	}
	for _, l := range links {
		s.links[l] = true
	}
	return s
}

// Contains reports whether the normalized link was delivered before.
func (s *SeenSet) Contains(link string) bool {
	return s.links[link]
}

// AddAll merges every key of m into the set.
func (s *SeenSet) AddAll(m map[string]bool) {
	for l := range m {
		s.links[l] = true
	}
}

// Len returns the number of links in the set.
func (s *SeenSet) Len() int {
	return len(s.links)
}

// Save writes the set back as a sorted JSON array.
func (s *SeenSet) Save() error {
	links := make([]string, 0, len(s.links))
	for l := range s.links {
		links = append(links, l)
	}
	sort.Strings(links)
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seen-set: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write seen-set %s: %w", s.path, err)
	}
	return nil
}

// Deduper filters a single run's records against both the persisted set and
// the links admitted earlier in the same run. Observed accumulates every
// link offered, admitted or not, so the caller can persist the full union.
type Deduper struct {
	seen     *SeenSet
	inRun    map[string]bool
	Observed map[string]bool
}

// NewDeduper wraps a loaded seen-set for one run.
func NewDeduper(seen *SeenSet) *Deduper {
	return &Deduper{
		seen:     seen,
		inRun:    map[string]bool{},
		Observed: map[string]bool{},
	}
}

// Admit records the normalized link and reports whether it is new, i.e.
// neither delivered in a previous run nor already admitted in this one.
func (d *Deduper) Admit(link string) bool {
	if link == "" {
		return false
	}
	d.Observed[link] = true
	if d.inRun[link] || d.seen.Contains(link) {
		return false
	}
	d.inRun[link] = true
	return true
}
