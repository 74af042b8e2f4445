package roster

import (
	"strings"
	"testing"
)

func TestRandomID(t *testing.T) {
	counts := make(map[rune]int)
	const n = 20000
	for range n {
		id := randomID()
		if len(id) != idLength {
			t.Fatalf("len(%q) = %d, want %d", id, len(id), idLength)
		}
		for _, c := range id {
			if !strings.ContainsRune(idAlphabet, c) {
				t.Fatalf("id %q has %q outside the alphabet", id, c)
			}
			counts[c]++
		}
	}

	// 180000 draws over 36 characters: about 5000 each, standard deviation
	// about 70. A plain byte modulo would give the first four about 5700.
	if len(counts) != len(idAlphabet) {
		t.Errorf("saw %d distinct characters, want %d", len(counts), len(idAlphabet))
	}
	for c, got := range counts {
		if got < 4700 || got > 5300 {
			t.Errorf("character %q drawn %d times, want about 5000", c, got)
		}
	}
}
