package sealevel

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/safemath"
)

const MaxInstructionStackDepth = 5

type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	txAccts := &TransactionAccounts{
		Accounts: make([]*accounts.Account, len(accts)),
		Touched:  make([]bool, len(accts)),
	}
	for idx := range accts {
		txAccts.Accounts[idx] = accts[idx].Clone()
	}
	return txAccts
}

func (txAccounts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccounts.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	return txAccounts.Accounts[idx], nil
}

func (txAccounts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccounts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccounts.Touched[idx] = true
	return nil
}

// TransactionAccountKeys lists every account referenced by instrs, program
// ids included, in first-seen order.
func TransactionAccountKeys(instrs []Instruction) []solana.PublicKey {
	var keys []solana.PublicKey
	for _, ix := range instrs {
		for _, meta := range ix.Accounts {
			keys = append(keys, meta.Pubkey)
		}
		keys = append(keys, ix.ProgramId)
	}
	return lo.Uniq(keys)
}

// LoadTransactionAccounts reads the accounts instrs reference from store.
func LoadTransactionAccounts(store accounts.Accounts, instrs []Instruction) (*TransactionAccounts, error) {
	return LoadAccounts(store, TransactionAccountKeys(instrs))
}

// LoadAccounts reads keys from store, in order. Accounts the store does not
// hold are loaded empty and system owned.
func LoadAccounts(store accounts.Accounts, keys []solana.PublicKey) (*TransactionAccounts, error) {
	accts := make([]accounts.Account, 0, len(keys))
	for _, key := range keys {
		pk := [32]byte(key)
		acct, err := store.GetAccount(&pk)
		if errors.Is(err, accounts.ErrAccountNotFound) {
			accts = append(accts, accounts.Account{Key: key})
			continue
		} else if err != nil {
			return nil, err
		}
		acct.Key = key
		accts = append(accts, *acct)
	}
	return NewTransactionAccounts(accts), nil
}

type TransactionCtx struct {
	Accounts         TransactionAccounts
	instructionStack []*InstructionCtx
	instructionTrace []*InstructionCtx

	// data lengths as of the start of the current top-level instruction
	topLevelDataLens []uint64
}

func NewTransactionCtx(txAccts TransactionAccounts) *TransactionCtx {
	return &TransactionCtx{Accounts: txAccts}
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, acct := range txCtx.Accounts.Accounts {
		if acct.Key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(idx uint64) (solana.PublicKey, error) {
	acct, err := txCtx.Accounts.GetAccount(idx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return acct.Key, nil
}

func (txCtx *TransactionCtx) AccountAtIndex(idx uint64) (*accounts.Account, error) {
	return txCtx.Accounts.GetAccount(idx)
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	if len(txCtx.instructionStack) == 0 {
		return nil, InstrErrCallDepth
	}
	return txCtx.instructionStack[len(txCtx.instructionStack)-1], nil
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(level uint64) (*InstructionCtx, error) {
	if level >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.instructionStack[level], nil
}

// InstructionTrace lists every instruction pushed so far, top-level and CPI,
// in execution order.
func (txCtx *TransactionCtx) InstructionTrace() []*InstructionCtx {
	return txCtx.instructionTrace
}

func (txCtx *TransactionCtx) Push(instrCtx *InstructionCtx) error {
	if txCtx.InstructionCtxStackHeight() >= MaxInstructionStackDepth {
		return InstrErrCallDepth
	}

	if len(txCtx.instructionStack) == 0 {
		txCtx.topLevelDataLens = make([]uint64, len(txCtx.Accounts.Accounts))
		for idx, acct := range txCtx.Accounts.Accounts {
			txCtx.topLevelDataLens[idx] = uint64(len(acct.Data))
		}
	}

	sum, err := txCtx.instructionAccountsLamportSum(instrCtx)
	if err != nil {
		return err
	}
	instrCtx.lamportSum = sum
	instrCtx.StackHeight = txCtx.InstructionCtxStackHeight() + 1

	txCtx.instructionTrace = append(txCtx.instructionTrace, instrCtx)
	txCtx.instructionStack = append(txCtx.instructionStack, instrCtx)
	return nil
}

func (txCtx *TransactionCtx) Pop() error {
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]

	sum, err := txCtx.instructionAccountsLamportSum(instrCtx)
	if err != nil {
		return err
	}
	if sum != instrCtx.lamportSum {
		return InstrErrUnbalancedInstruction
	}
	return nil
}

// DataLenAtTopLevelStart returns the data length the account had when the
// enclosing top-level instruction began.
func (txCtx *TransactionCtx) DataLenAtTopLevelStart(idx uint64) uint64 {
	if idx >= uint64(len(txCtx.topLevelDataLens)) {
		return 0
	}
	return txCtx.topLevelDataLens[idx]
}

func (txCtx *TransactionCtx) instructionAccountsLamportSum(instrCtx *InstructionCtx) (uint64, error) {
	var sum uint64
	seen := make(map[uint64]bool)
	for _, instrAcct := range instrCtx.InstructionAccounts {
		if seen[instrAcct.IndexInTransaction] {
			continue
		}
		seen[instrAcct.IndexInTransaction] = true

		acct, err := txCtx.Accounts.GetAccount(instrAcct.IndexInTransaction)
		if err != nil {
			return 0, err
		}
		sum, err = safemath.CheckedAddU64(sum, acct.Lamports)
		if err != nil {
			return 0, InstrErrArithmeticOverflow
		}
	}
	return sum, nil
}
