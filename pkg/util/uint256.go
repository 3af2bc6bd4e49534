package util

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// Uint256 is a 32 byte long unsigned integer, mostly used to carry
// Keccak-256 hashes.
type Uint256 [Uint256Size]uint8

// Uint256DecodeString attempts to decode the given hex string (with or
// without the 0x prefix) into a Uint256.
func Uint256DecodeString(s string) (u Uint256, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint256Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint256Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytes(b)
}

// Uint256DecodeBytes attempts to decode the given bytes into a Uint256.
func Uint256DecodeBytes(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected byte size of %d got %d", Uint256Size, len(b))
	}
	copy(u[:], b)
	return
}

// Bytes returns the byte slice representation of u.
func (u Uint256) Bytes() []byte {
	return u[:]
}

// String implements the stringer interface.
func (u Uint256) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// Equals returns true if both Uint256 values are the same.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// CompareTo compares two Uint256 with each other. Possible output: 1, -1, 0.
//  1 implies u > other.
// -1 implies u < other.
//  0 implies u = other.
func (u Uint256) CompareTo(other Uint256) int {
	return bytes.Compare(u[:], other[:])
}

// IsZero returns true if u is the zero hash.
func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Uint256DecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}
