package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeLink(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://example.org/job/123?ref=rss", "https://example.org/job/123/"},
		{"https://example.org/job/123/", "https://example.org/job/123/"},
		{"https://example.org/job/123", "https://example.org/job/123/"},
		{"https://example.org/job/123#apply", "https://example.org/job/123/"},
		{"  https://example.org/job/123?a=1&b=2  ", "https://example.org/job/123/"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeLink(c.in); got != c.want {
			t.Errorf("NormalizeLink(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLoadSeenSetMissingFile(t *testing.T) {
	s := LoadSeenSet(filepath.Join(t.TempDir(), "nope.json"), false)
	if s.Len() != 0 {
		t.Errorf("got %d links, want 0", s.Len())
	}
}

func TestLoadSeenSetCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := LoadSeenSet(path, false)
	if s.Len() != 0 {
		t.Errorf("got %d links, want 0", s.Len())
	}
}

func TestSeenSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := LoadSeenSet(path, false)
	s.AddAll(map[string]bool{"https://a/": true, "https://b/": true})
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	reloaded := LoadSeenSet(path, false)
	if !reloaded.Contains("https://a/") || !reloaded.Contains("https://b/") {
		t.Error("reloaded set is missing saved links")
	}
	if reloaded.Len() != 2 {
		t.Errorf("got %d links, want 2", reloaded.Len())
	}
}

func TestLoadSeenSetReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	s := LoadSeenSet(path, false)
	s.AddAll(map[string]bool{"https://a/": true})
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if got := LoadSeenSet(path, true); got.Len() != 0 {
		t.Errorf("reset load got %d links, want 0", got.Len())
	}
}

func TestDeduperSuppressesDuplicates(t *testing.T) {
	seen := LoadSeenSet(filepath.Join(t.TempDir(), "seen.json"), false)
	seen.AddAll(map[string]bool{"https://old/": true})
	d := NewDeduper(seen)

	if !d.Admit("https://new/") {
		t.Error("fresh link should be admitted")
	}
	if d.Admit("https://new/") {
		t.Error("same link twice in one run should be rejected")
	}
	if d.Admit("https://old/") {
		t.Error("persisted link should be rejected")
	}
	if d.Admit("") {
		t.Error("empty link should be rejected")
	}

	for _, l := range []string{"https://new/", "https://old/"} {
		if !d.Observed[l] {
			t.Errorf("Observed should include %q even when suppressed", l)
		}
	}
}
