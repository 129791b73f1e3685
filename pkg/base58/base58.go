// Package base58 decodes Solana addresses written in base58 into raw 32-byte keys.
package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// DecodeFromString decodes a base58 address into a 32-byte key.
func DecodeFromString(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("invalid address length %d for %q", len(raw), s)
	}
	copy(out[:], raw)
	return out, nil
}

// MustDecodeFromString is like DecodeFromString but panics on failure.
// Intended for package-level address constants.
func MustDecodeFromString(s string) [32]byte {
	out, err := DecodeFromString(s)
	if err != nil {
		panic(err.Error())
	}
	return out
}

func Encode(key [32]byte) string {
	return base58.Encode(key[:])
}
