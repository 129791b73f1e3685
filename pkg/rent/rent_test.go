package rent

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/accounts"
)

func TestMinimumBalance_Default(t *testing.T) {
	r := Default()
	assert.Equal(t, uint64(890880), r.MinimumBalance(0))
	assert.Equal(t, uint64((128+234)*3480*2), r.MinimumBalance(234))
	assert.Equal(t, uint64((128+329)*3480*2), r.MinimumBalance(329))
}

func TestIsExempt(t *testing.T) {
	r := Default()
	min := r.MinimumBalance(82)
	assert.True(t, r.IsExempt(min, 82))
	assert.False(t, r.IsExempt(min-1, 82))
	assert.False(t, r.IsExempt(min, 83))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Error(t, Rent{LamportsPerUint8Year: 1, ExemptionThreshold: -1}.Validate())
	assert.Error(t, Rent{LamportsPerUint8Year: 1, BurnPercent: 101}.Validate())
}

func TestRentStateTransitions(t *testing.T) {
	r := Default()
	key := solana.PublicKey{0xbb}

	uninit := NewRentStateInfo(&accounts.Account{}, &r)
	exempt := NewRentStateInfo(&accounts.Account{Lamports: r.MinimumBalance(10), Data: make([]byte, 10)}, &r)
	paying := NewRentStateInfo(&accounts.Account{Lamports: 1, Data: make([]byte, 10)}, &r)

	assert.Equal(t, uint64(RentStateUninitialized), uninit.RentState)
	assert.Equal(t, uint64(RentStateRentExempt), exempt.RentState)
	assert.Equal(t, uint64(RentStateRentPaying), paying.RentState)

	assert.NoError(t, CheckRentStateTransition(key, uninit, exempt))
	assert.NoError(t, CheckRentStateTransition(key, exempt, uninit))
	assert.NoError(t, CheckRentStateTransition(key, paying, paying))
	assert.ErrorIs(t, CheckRentStateTransition(key, uninit, paying), ErrInsufficientFundsForRent)
	assert.ErrorIs(t, CheckRentStateTransition(key, exempt, paying), ErrInsufficientFundsForRent)

	grown := NewRentStateInfo(&accounts.Account{Lamports: 1, Data: make([]byte, 11)}, &r)
	assert.ErrorIs(t, CheckRentStateTransition(key, paying, grown), ErrInsufficientFundsForRent)

	err := VerifyRentStateChanges([]solana.PublicKey{key, key}, []*RentStateInfo{uninit, nil}, []*RentStateInfo{exempt, nil})
	assert.NoError(t, err)
}
