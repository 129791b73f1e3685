// Package runtime hosts the provisioning program in an in-memory bank
// alongside the system program and the Token-2022 emulator, and runs
// provisioning scenarios against it.
package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/features"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/rent"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/system"
	"go.firedancer.io/extmint/pkg/token2022"
	"k8s.io/klog/v2"
)

// Bank executes transactions one at a time against an in-memory store.
type Bank struct {
	Accounts *accounts.MemAccounts
	Programs *sealevel.Registry
	Features *features.Features
	Rent     rent.Rent
	Payer    solana.PrivateKey

	mu        sync.Mutex
	slot      uint64
	blockhash solana.Hash
	bankHash  [32]byte
}

// TransactionResult is what one transaction did to the bank.
type TransactionResult struct {
	Slot              uint64
	Err               error
	Logs              []string
	Trace             []TraceEntry
	ComputeUnits      uint64
	Modified          []solana.PublicKey
	AccountsDeltaHash []byte
	BankHash          [32]byte
}

// TraceEntry is one program invocation, top-level or CPI, in execution order.
type TraceEntry struct {
	StackHeight uint64
	Program     string
}

func NewBank(cfg Config) (*Bank, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	f, err := cfg.FeatureSet()
	if err != nil {
		return nil, err
	}

	payer, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}

	b := &Bank{
		Accounts: accounts.NewMemAccounts(),
		Programs: sealevel.NewRegistry(),
		Features: f,
		Rent:     cfg.Rent,
		Payer:    payer,
	}
	b.blockhash = solana.Hash(payer.PublicKey())

	for _, p := range []struct {
		id      solana.PublicKey
		program sealevel.NativeProgram
	}{
		{system.ProgramID, system.Program},
		{token2022.ProgramID, token2022.Program},
		{program.ProgramID, program.Program},
	} {
		err = b.Programs.Register(p.id, p.program)
		if err != nil {
			return nil, err
		}
		err = b.SetAccount(accounts.Account{Key: p.id, Lamports: 1, Owner: sealevel.NativeLoaderAddr, Executable: true})
		if err != nil {
			return nil, err
		}
	}

	err = b.SetAccount(accounts.Account{Key: payer.PublicKey(), Lamports: cfg.PayerLamports})
	if err != nil {
		return nil, err
	}

	klog.V(2).Infof("bank: payer %s, %v", payer.PublicKey(), f.AllEnabled())
	for _, id := range b.Programs.ProgramIds() {
		klog.V(2).Infof("bank: program %s (%s)", id, b.Programs.NameOf(id))
	}
	return b, nil
}

func (b *Bank) SetAccount(acct accounts.Account) error {
	pk := [32]byte(acct.Key)
	return b.Accounts.SetAccount(&pk, &acct)
}

// GetAccount returns a copy of the account, or nil if it does not exist.
func (b *Bank) GetAccount(key solana.PublicKey) *accounts.Account {
	pk := [32]byte(key)
	acct, err := b.Accounts.GetAccount(&pk)
	if err != nil {
		return nil
	}
	return acct
}

func (b *Bank) Blockhash() solana.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockhash
}

// Process builds a transaction from ixs paid for by the bank's payer,
// signs it with the payer and signers, and executes it.
func (b *Bank) Process(ixs []sealevel.Instruction, signers ...solana.PrivateKey) (*TransactionResult, error) {
	tx, err := NewTransaction(ixs, b.Blockhash(), b.Payer.PublicKey(), append([]solana.PrivateKey{b.Payer}, signers...)...)
	if err != nil {
		return nil, err
	}
	return b.ProcessTransaction(tx)
}

// ProcessTransaction verifies and executes tx. The returned error is
// non-nil only if tx could not be executed at all; execution failures are
// reported in TransactionResult.Err, and leave the store untouched.
func (b *Bank) ProcessTransaction(tx *solana.Transaction) (*TransactionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := verifySignatures(tx)
	if err != nil {
		return nil, err
	}

	feePayer := tx.Message.AccountKeys[0]
	if b.GetAccount(feePayer) == nil {
		return nil, fmt.Errorf("fee payer %s: %w", feePayer, TxErrAccountNotFound)
	}

	instrs, err := instrsFromTx(tx)
	if err != nil {
		return nil, fmt.Errorf("decoding instructions: %w", err)
	}

	txAccts, err := sealevel.LoadAccounts(b.Accounts, tx.Message.AccountKeys)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	log := new(sealevel.LogRecorder)
	execCtx := sealevel.NewExecutionCtx(b.Accounts, sealevel.NewTransactionCtx(*txAccts), b.Programs, b.Features, b.Rent)
	execCtx.Log = log

	b.slot++
	result := &TransactionResult{Slot: b.slot}
	result.Err = execCtx.ProcessTransaction(instrs...)
	result.Logs = log.Logs
	result.Trace = b.trace(execCtx.TransactionContext)
	result.ComputeUnits = execCtx.ComputeMeter.Used()

	var modified []*accounts.Account
	if result.Err == nil {
		for idx, acct := range execCtx.TransactionContext.Accounts.Accounts {
			if execCtx.TransactionContext.Accounts.Touched[idx] {
				modified = append(modified, acct)
				result.Modified = append(result.Modified, acct.Key)
			}
		}
	} else {
		var txErr *sealevel.TransactionError
		if errors.As(result.Err, &txErr) {
			klog.V(1).Infof("slot %d: instruction %d failed: %s", b.slot, txErr.InstructionIndex, txErr.Err)
		} else {
			klog.V(1).Infof("slot %d: transaction failed: %s", b.slot, result.Err)
		}
	}

	result.AccountsDeltaHash = accountsDeltaHash(modified)
	copy(b.bankHash[:], chainBankHash(b.bankHash, result.AccountsDeltaHash, uint64(len(tx.Signatures)), b.blockhash))
	copy(b.blockhash[:], b.bankHash[:])
	result.BankHash = b.bankHash

	return result, nil
}

func (b *Bank) trace(txCtx *sealevel.TransactionCtx) []TraceEntry {
	var entries []TraceEntry
	for _, instrCtx := range txCtx.InstructionTrace() {
		if len(instrCtx.ProgramAccounts) == 0 {
			continue
		}
		key, err := txCtx.KeyOfAccountAtIndex(instrCtx.ProgramAccounts[len(instrCtx.ProgramAccounts)-1])
		if err != nil {
			continue
		}
		entries = append(entries, TraceEntry{StackHeight: instrCtx.StackHeight, Program: b.Programs.NameOf(key)})
	}
	return entries
}
