package accounts

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrAccountNotFound = errors.New("account not found")

type Accounts interface {
	GetAccount(pubkey *[32]byte) (*Account, error)
	SetAccount(pubkey *[32]byte, acc *Account) error
}

type Account struct {
	Key        solana.PublicKey
	Lamports   uint64
	Data       []byte
	Owner      [32]byte
	Executable bool
	RentEpoch  uint64
}

// Clone returns a deep copy so transaction-local mutations never alias the store.
func (a *Account) Clone() *Account {
	c := *a
	c.Data = make([]byte, len(a.Data))
	copy(c.Data, a.Data)
	return &c
}

func (a *Account) IsExecutable() bool {
	return a.Executable
}

// IsEmpty reports whether the account holds nothing: no lamports, no data
// and the system program as owner.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && a.Owner == [32]byte{}
}

func (a *Account) SetData(data []byte) {
	a.Data = make([]byte, len(data))
	copy(a.Data, data)
}
