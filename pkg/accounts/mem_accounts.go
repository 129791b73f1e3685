package accounts

import "sync"

// MemAccounts is an in-memory account store. Accounts are copied on the way
// in and on the way out.
type MemAccounts struct {
	mu  sync.RWMutex
	Map map[[32]byte]*Account
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		Map: make(map[[32]byte]*Account),
	}
}

func (m *MemAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.Map[*pubkey]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (m *MemAccounts) SetAccount(pubkey *[32]byte, acc *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Map[*pubkey] = acc.Clone()
	return nil
}

func (m *MemAccounts) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Map)
}
