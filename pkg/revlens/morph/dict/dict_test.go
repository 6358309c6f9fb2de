package dict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/morph"
)

func TestTokenizeDefault(t *testing.T) {
	a := Default()
	tests := []struct {
		text string
		want []morph.Token
	}{
		{
			"배송이 너무 늦어요",
			[]morph.Token{
				{Form: "배송", Tag: "NNG"},
				{Form: "이", Tag: "JX"},
				{Form: "너무", Tag: "MAG"},
				{Form: "늦", Tag: "VV"},
				{Form: "어요", Tag: "EC"},
			},
		},
		{
			"정말 좋아요",
			[]morph.Token{
				{Form: "정말", Tag: "MAG"},
				{Form: "좋", Tag: "VA"},
				{Form: "아요", Tag: "EC"},
			},
		},
		{
			"포장도 파손",
			[]morph.Token{
				{Form: "포장", Tag: "NNG"},
				{Form: "도", Tag: "JX"},
				{Form: "파손", Tag: "NNG"},
			},
		},
		{
			"USB 3개",
			[]morph.Token{
				{Form: "USB", Tag: "SL"},
				{Form: "3", Tag: "SN"},
				{Form: "개", Tag: "NNG"},
			},
		},
	}
	for _, tt := range tests {
		got, err := a.Tokenize(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", tt.text, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestUnknownWordSuffixStripping(t *testing.T) {
	a := Default()
	got, _ := a.Tokenize(context.Background(), "키보드가")
	want := []morph.Token{{Form: "키보드", Tag: "NNG"}, {Form: "가", Tag: "JX"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(키보드가) = %v, want %v", got, want)
	}

	got, _ = a.Tokenize(context.Background(), "고장났어요")
	want = []morph.Token{
		{Form: "고장", Tag: "NNG"},
		{Form: "났", Tag: "VV"},
		{Form: "어요", Tag: "EC"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(고장났어요) = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	got, err := Default().Tokenize(context.Background(), "   ")
	if err != nil || len(got) != 0 {
		t.Errorf("Tokenize(blank) = %v, %v", got, err)
	}
}

func TestTokenizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Default().Tokenize(ctx, "배송"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	content := `version: test
words:
  NNG: [소음]
  VA: [시끄럽]
particles: [이]
endings: [네요]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if a.Version() != "test" {
		t.Errorf("Version = %q", a.Version())
	}
	got, _ := a.Tokenize(context.Background(), "소음이 시끄럽네요")
	want := []morph.Token{
		{Form: "소음", Tag: "NNG"},
		{Form: "이", Tag: "JX"},
		{Form: "시끄럽", Tag: "VA"},
		{Form: "네요", Tag: "EC"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestNewRejectsConflictingTags(t *testing.T) {
	_, err := New(Dictionary{Words: map[string][]string{"NNG": {"좋"}, "VA": {"좋"}}})
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
	_, err = New(Dictionary{})
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("empty dictionary err = %v, want ErrInvalidConfig", err)
	}
}
