// Package random contains random value generators for testing.
package random

import (
	"math/rand"
	"time"

	"github.com/plasmacash/plasma-go/pkg/crypto/hash"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// String returns a random string with the n as its length.
func String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(Int(65, 90))
	}

	return string(b)
}

// Int returns a random integer between min and max.
func Int(min, max int) int {
	return min + rand.Intn(max-min)
}

// Uint64 returns a random uint64 between min and max.
func Uint64(min, max uint64) uint64 {
	return min + uint64(rand.Int63n(int64(max-min)))
}

// Uint256 returns a random Uint256.
func Uint256() util.Uint256 {
	str := String(20)
	return hash.Keccak256([]byte(str))
}

// Uint160 returns a random Uint160.
func Uint160() util.Uint160 {
	h := Uint256()
	u := util.Uint160{}
	copy(u[:], h[:20])
	return u
}

// Bytes returns a random byte slice of the given length.
func Bytes(n int) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}

func init() {
	rand.Seed(time.Now().UTC().UnixNano())
}
