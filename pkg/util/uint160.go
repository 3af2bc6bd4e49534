package util

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Uint160Size is the size of Uint160 in bytes.
const Uint160Size = 20

// Uint160 is a 20 byte long unsigned integer. It is used for addresses
// derived from public keys.
type Uint160 [Uint160Size]uint8

// Uint160DecodeString attempts to decode the given hex string (with or
// without the 0x prefix) into a Uint160.
func Uint160DecodeString(s string) (Uint160, error) {
	var u Uint160
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint160Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint160Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint160DecodeBytes(b)
}

// Uint160DecodeBytes attempts to decode the given bytes into a Uint160.
func Uint160DecodeBytes(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("expected byte size of %d got %d", Uint160Size, len(b))
	}
	copy(u[:], b)
	return
}

// Bytes returns the byte slice representation of u.
func (u Uint160) Bytes() []byte {
	return u[:]
}

// String implements the stringer interface.
func (u Uint160) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// Equals returns true if both Uint160 values are the same.
func (u Uint160) Equals(other Uint160) bool {
	return u == other
}

// Less returns true if this value is less than the given Uint160 value.
func (u Uint160) Less(other Uint160) bool {
	return bytes.Compare(u[:], other[:]) < 0
}

// IsZero returns true if u is the zero address.
func (u Uint160) IsZero() bool {
	return u == Uint160{}
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint160) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Uint160DecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint160) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalYAML implements the yaml unmarshaller interface.
func (u *Uint160) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := Uint160DecodeString(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// MarshalYAML implements the yaml marshaller interface.
func (u Uint160) MarshalYAML() (interface{}, error) {
	return u.String(), nil
}
