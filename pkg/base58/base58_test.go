package base58

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFromString_SystemProgram(t *testing.T) {
	key, err := DecodeFromString("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, key)
}

func TestDecodeFromString_RoundTrip(t *testing.T) {
	const addr = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	key := MustDecodeFromString(addr)
	assert.Equal(t, byte(0x06), key[0])
	assert.Equal(t, byte(0xfc), key[31])
	assert.Equal(t, addr, Encode(key))
}

func TestDecodeFromString_WrongLength(t *testing.T) {
	_, err := DecodeFromString("1111")
	assert.Error(t, err)

	assert.Panics(t, func() { MustDecodeFromString("not-base58-0OIl") })
}
