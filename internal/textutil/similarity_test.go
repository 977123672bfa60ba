package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenizeDropsArticlesAndPunctuation(t *testing.T) {
	got := Tokenize("The Hobbit: An Adventure in Middle-earth")
	want := []string{"hobbit", "adventure", "in", "middle", "earth"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	if got := Tokenize("Alien 8"); !reflect.DeepEqual(got, []string{"alien", "8"}) {
		t.Fatalf("digits must survive, got %v", got)
	}
}

func TestNewFingerprintEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "The", "!!!"} {
		if fp := NewFingerprint(text); fp != nil {
			t.Errorf("NewFingerprint(%q) = %+v, want nil", text, fp)
		}
	}
}

func TestCosineSimilarityNil(t *testing.T) {
	if got := CosineSimilarity(nil, NewFingerprint("Zax")); got != 0 {
		t.Fatalf("nil similarity = %v", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical ignoring article", "The Hobbit", "Hobbit", 1},
		{"case", "KNIGHT LORE", "knight lore", 1},
		{"disjoint", "Knight Lore", "Manic Miner", 0},
		{"partial", "Jet Set Willy", "Jet Set Willy II", 3 / math.Sqrt(12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(NewFingerprint(tt.a), NewFingerprint(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"Jet Set Willy II", "Jet Set Willy", "Manic Miner"}
	idx, score := BestMatch("Jet Set Willy", candidates, 0.5)
	if idx != 1 || math.Abs(score-1) > 1e-9 {
		t.Fatalf("BestMatch = %d (%v), want 1 (1)", idx, score)
	}
	if idx, _ := BestMatch("Knight Lore", candidates, 0.5); idx != -1 {
		t.Fatalf("expected no match, got %d", idx)
	}
	if idx, _ := BestMatch("Knight Lore", nil, 0.5); idx != -1 {
		t.Fatalf("expected no match for empty candidates, got %d", idx)
	}
}
