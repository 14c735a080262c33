package utils

import (
	"math/rand"
	"strings"
	"testing"
)

func TestRandHex(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{8, 15, 16, 32} {
		s := RandHex(rng, n)
		if len(s) != n {
			t.Fatalf("RandHex(%d) returned %d characters", n, len(s))
		}
		if strings.Trim(s, "0123456789abcdef") != "" {
			t.Fatalf("RandHex produced non-hex output %q", s)
		}
	}
}

func TestUUIDShape(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	id := UUID(rng)
	if len(id) != 36 {
		t.Fatalf("UUID length %d", len(id))
	}
	for _, idx := range []int{8, 13, 18, 23} {
		if id[idx] != '-' {
			t.Fatalf("UUID %q missing separator at %d", id, idx)
		}
	}
}

func TestUUIDDeterministic(t *testing.T) {
	first := UUID(rand.New(rand.NewSource(7)))
	second := UUID(rand.New(rand.NewSource(7)))
	if first != second {
		t.Fatalf("same seed produced different UUIDs: %s vs %s", first, second)
	}
	third := UUID(rand.New(rand.NewSource(8)))
	if first == third {
		t.Fatalf("different seeds collided")
	}
}
