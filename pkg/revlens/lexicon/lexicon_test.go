package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLexicon(t *testing.T) {
	lex := Default()

	if !lex.IsStopword("너무") || lex.IsStopword("배송") {
		t.Error("stopword membership wrong")
	}

	tests := []struct {
		form    string
		pos     string
		neg     string
		wantPos bool
		wantNeg bool
	}{
		{"만족스럽", "만족", "", true, false},
		{"불만족", "만족", "불만", true, true}, // both lists scanned independently
		{"고장", "", "고장", false, true},
		{"배송", "", "", false, false},
		{"", "", "", false, false},
	}
	for _, tt := range tests {
		pos, okPos := lex.MatchPositive(tt.form)
		neg, okNeg := lex.MatchNegative(tt.form)
		if okPos != tt.wantPos || pos != tt.pos {
			t.Errorf("MatchPositive(%q) = %q, %v", tt.form, pos, okPos)
		}
		if okNeg != tt.wantNeg || neg != tt.neg {
			t.Errorf("MatchNegative(%q) = %q, %v", tt.form, neg, okNeg)
		}
	}
}

func TestMatchOrder(t *testing.T) {
	lex := New(nil, []string{"좋", "좋음"}, nil)
	got, _ := lex.MatchPositive("좋음")
	if got != "좋" {
		t.Errorf("MatchPositive returned %q, want first configured entry", got)
	}
}

func TestNewDedupes(t *testing.T) {
	lex := New([]string{" 이 ", "", "이"}, []string{"a", "a", " "}, nil)
	if lex.StopwordCount() != 1 {
		t.Errorf("StopwordCount = %d, want 1", lex.StopwordCount())
	}
	if got := lex.Positive(); len(got) != 1 {
		t.Errorf("Positive = %v", got)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `version: "v2"
positive: [굿]
negative: [별로, 환불]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if lex.Version() != "v2" {
		t.Errorf("Version = %q", lex.Version())
	}
	if _, ok := lex.MatchPositive("굿굿"); !ok {
		t.Error("custom positive entry not loaded")
	}
	if _, ok := lex.MatchNegative("환불요청"); !ok {
		t.Error("custom negative entry not loaded")
	}
	// stopwords missing from the file fall back to defaults
	if !lex.IsStopword("정말") {
		t.Error("default stopwords not applied")
	}
}

func TestLoadFromYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("positive: [unclosed"), 0o644)
	if _, err := LoadFromYAML(path); err == nil {
		t.Error("expected parse error")
	}
}
