package pipeline

import "testing"

func TestClassifyFirstMatchWins(t *testing.T) {
	got := Classify(theKeywordRules, "Lecturer in History of Art", "")
	if got != "History of Art" {
		t.Errorf("got %q, want %q", got, "History of Art")
	}
}

func TestClassifyBroadKeyword(t *testing.T) {
	got := Classify(theKeywordRules, "Professor of Modern History", "")
	if got != "History" {
		t.Errorf("got %q, want %q", got, "History")
	}
}

func TestClassifyUsesDescription(t *testing.T) {
	got := Classify(theKeywordRules, "Research Fellow", "working on criminology and deviance")
	if got != "Sociology" {
		t.Errorf("got %q, want %q", got, "Sociology")
	}
}

func TestClassifyNoMatch(t *testing.T) {
	if got := Classify(theKeywordRules, "Lecturer in Marine Biology", "fish"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
