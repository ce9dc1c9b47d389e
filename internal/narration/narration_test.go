package narration

import (
	"strings"
	"testing"
)

func TestPhrase(t *testing.T) {
	n := New([]string{"Only "}, 1)
	tests := []struct {
		name  string
		score int
		opts  Options
		want  string
	}{
		{"plain score", 42, Options{}, "42"},
		{"nice", 69, Options{}, "69, nice!"},
		{"custom suffix wins over nice", 69, Options{Suffix: " points"}, "69 points"},
		{"custom suffix", 12, Options{Suffix: "!"}, "12!"},
		{"prefix", 30, Options{Prefix: "You scored "}, "You scored 30"},
		{"failure insult", 3, Options{IsFailure: true}, "Only 3"},
		{"prefix beats insult", 3, Options{IsFailure: true, Prefix: "Hmm, "}, "Hmm, 3"},
		{"negative", -4, Options{}, "-4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Phrase(tt.score, tt.opts); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPhrase_DefaultInsults(t *testing.T) {
	n := New(nil, 7)
	for i := 0; i < 50; i++ {
		got := n.Phrase(5, Options{IsFailure: true})
		if !strings.HasSuffix(got, "5") {
			t.Fatalf("phrase %q does not end with the score", got)
		}
		ok := false
		for _, ins := range DefaultInsults {
			if strings.HasPrefix(got, ins) {
				ok = true
				break
			}
		}
		if !ok {
			t.Fatalf("phrase %q does not start with a default insult", got)
		}
	}
}

func TestPhrase_SameSeedSameSequence(t *testing.T) {
	a, b := New(nil, 99), New(nil, 99)
	for i := 0; i < 20; i++ {
		if pa, pb := a.Phrase(1, Options{IsFailure: true}), b.Phrase(1, Options{IsFailure: true}); pa != pb {
			t.Fatalf("step %d: %q != %q", i, pa, pb)
		}
	}
}

func TestSetInsults(t *testing.T) {
	n := New([]string{"A "}, 1)
	n.SetInsults([]string{"B "})
	if got := n.Phrase(2, Options{IsFailure: true}); got != "B 2" {
		t.Errorf("got %q, want %q", got, "B 2")
	}
	n.SetInsults(nil)
	if got := n.Phrase(2, Options{IsFailure: true}); got == "B 2" {
		t.Errorf("empty list did not fall back to defaults")
	}
}
