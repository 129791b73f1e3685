package accounts

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemAccounts_CopyOnWriteAndRead(t *testing.T) {
	accts := NewMemAccounts()

	key := solana.PublicKey{0xbb}
	acct := &Account{Key: key, Lamports: 10, Data: []byte{1, 2, 3}}
	pk := [32]byte(key)
	require.NoError(t, accts.SetAccount(&pk, acct))

	acct.Data[0] = 9
	got, err := accts.GetAccount(&pk)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)

	got.Lamports = 99
	again, err := accts.GetAccount(&pk)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), again.Lamports)
	assert.Equal(t, 1, accts.Len())
}

func TestMemAccounts_NotFound(t *testing.T) {
	accts := NewMemAccounts()
	pk := [32]byte{0xaa}
	_, err := accts.GetAccount(&pk)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccount_IsEmpty(t *testing.T) {
	assert.True(t, (&Account{}).IsEmpty())
	assert.False(t, (&Account{Lamports: 1}).IsEmpty())
	assert.False(t, (&Account{Data: make([]byte, 1)}).IsEmpty())
	assert.False(t, (&Account{Owner: [32]byte{1}}).IsEmpty())
}
