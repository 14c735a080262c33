package utils

import (
	"fmt"
	"math/rand"
)

const hexDigits = "0123456789abcdef"

// RandHex returns n random lowercase hex characters from the provided source.
func RandHex(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[rng.Intn(len(hexDigits))]
	}
	return string(b)
}

// UUID returns a UUID-shaped identifier drawn from the provided source, so a
// seeded run produces stable IDs.
func UUID(rng *rand.Rand) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		RandHex(rng, 8), RandHex(rng, 4), RandHex(rng, 4), RandHex(rng, 4), RandHex(rng, 12))
}
