package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

type Instruction struct {
	Accounts  []AccountMeta
	Data      []byte
	ProgramId solana.PublicKey
}

type AccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta returns a writable account reference.
func NewAccountMeta(pubkey solana.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: true}
}

// NewReadonlyAccountMeta returns a read-only account reference.
func NewReadonlyAccountMeta(pubkey solana.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: isSigner, IsWritable: false}
}

// SolanaMeta converts the reference for use with solana-go helpers.
func (m AccountMeta) SolanaMeta() *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: m.Pubkey, IsSigner: m.IsSigner, IsWritable: m.IsWritable}
}

type InstructionAccount struct {
	IndexInTransaction uint64
	IndexInCaller      uint64
	IndexInCallee      uint64
	IsSigner           bool
	IsWritable         bool
}

// Invoker performs one synchronous cross-program invocation. The callee's
// error is returned as is.
type Invoker interface {
	Invoke(ix Instruction) error
}

type InvokerFunc func(ix Instruction) error

func (f InvokerFunc) Invoke(ix Instruction) error {
	return f(ix)
}

type Logger interface {
	Log(s string)
}

type LogRecorder struct {
	Logs []string
}

func (r *LogRecorder) Log(s string) {
	r.Logs = append(r.Logs, s)
}

type nopLogger struct{}

func (nopLogger) Log(string) {}
