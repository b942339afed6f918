// internal/game/utils.go
package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// codeAlphabet omits characters that are easily confused when read aloud (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a join code.
const CodeLength = 6

// newRand returns a math/rand source seeded from crypto/rand, falling back to the clock.
func newRand() *rand.Rand {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}

// generateCode draws a join code from codeAlphabet.
func generateCode(rng Rand) string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}
