package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/features"
	"go.firedancer.io/extmint/pkg/safemath"
)

const (
	MaxPermittedDataLength   = 10 * 1024 * 1024
	MaxPermittedDataIncrease = 10 * 1024
)

type BorrowedAccount struct {
	TxCtx              *TransactionCtx
	InstrCtx           *InstructionCtx
	IndexInTransaction uint64
	IndexInInstruction uint64
	Account            *accounts.Account
	isProgram          bool
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	return acct.Account.Key
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return solana.PublicKey(acct.Account.Owner)
}

func (acct *BorrowedAccount) Lamports() uint64 {
	return acct.Account.Lamports
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}

func (acct *BorrowedAccount) Touch() error {
	return acct.TxCtx.Accounts.Touch(acct.IndexInTransaction)
}

func (acct *BorrowedAccount) IsExecutable() bool {
	return acct.Account.IsExecutable()
}

func (acct *BorrowedAccount) IsSigner() bool {
	if acct.isProgram {
		return false
	}
	isSigner, err := acct.InstrCtx.IsInstructionAccountSigner(acct.IndexInInstruction)
	if err != nil {
		return false
	}
	return isSigner
}

func (acct *BorrowedAccount) IsWritable() bool {
	if acct.isProgram {
		return false
	}
	writable, err := acct.InstrCtx.IsInstructionAccountWritable(acct.IndexInInstruction)
	if err != nil {
		return false
	}
	return writable
}

func (acct *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	lastProgramKey, err := acct.InstrCtx.LastProgramKey(acct.TxCtx)
	if err != nil {
		return false
	}
	return lastProgramKey == acct.Owner()
}

func (acct *BorrowedAccount) DataIsZeroed() bool {
	for _, b := range acct.Account.Data {
		if b != 0 {
			return false
		}
	}
	return true
}

func (acct *BorrowedAccount) DataCanBeChanged() error {
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyDataModified
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountDataModified
	}
	return nil
}

// CanDataBeResized checks ownership and the size limits. Under the stricter
// ABI, an account touched by a nested instruction may not grow more than
// MaxPermittedDataIncrease past its length at the start of the top-level
// instruction.
func (acct *BorrowedAccount) CanDataBeResized(f *features.Features, newLen uint64) error {
	oldLen := uint64(len(acct.Account.Data))
	if oldLen != newLen && !acct.IsOwnedByCurrentProgram() {
		return InstrErrAccountDataSizeChanged
	}
	if newLen > MaxPermittedDataLength {
		return InstrErrInvalidRealloc
	}
	if f != nil && f.IsActive(features.StricterAbiAndRuntimeConstraints) && acct.InstrCtx.StackHeight > 1 {
		startLen := acct.TxCtx.DataLenAtTopLevelStart(acct.IndexInTransaction)
		if newLen > startLen+MaxPermittedDataIncrease {
			return InstrErrInvalidRealloc
		}
	}
	return nil
}

func (acct *BorrowedAccount) SetDataLength(f *features.Features, newLen uint64) error {
	err := acct.CanDataBeResized(f, newLen)
	if err != nil {
		return err
	}
	err = acct.DataCanBeChanged()
	if err != nil {
		return err
	}

	oldLen := uint64(len(acct.Account.Data))
	if oldLen == newLen {
		return nil
	}

	err = acct.Touch()
	if err != nil {
		return err
	}

	if newLen < oldLen {
		acct.Account.Data = acct.Account.Data[:newLen]
	} else {
		acct.Account.Data = append(acct.Account.Data, make([]byte, newLen-oldLen)...)
	}
	return nil
}

func (acct *BorrowedAccount) SetData(f *features.Features, data []byte) error {
	err := acct.CanDataBeResized(f, uint64(len(data)))
	if err != nil {
		return err
	}
	err = acct.DataCanBeChanged()
	if err != nil {
		return err
	}
	err = acct.Touch()
	if err != nil {
		return err
	}

	acct.Account.SetData(data)
	return nil
}

func (acct *BorrowedAccount) SetOwner(owner solana.PublicKey) error {
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrModifiedProgramId
	}
	if !acct.IsWritable() {
		return InstrErrModifiedProgramId
	}
	if acct.IsExecutable() {
		return InstrErrModifiedProgramId
	}
	if !acct.DataIsZeroed() {
		return InstrErrModifiedProgramId
	}
	if acct.Owner() == owner {
		return nil
	}

	err := acct.Touch()
	if err != nil {
		return err
	}
	acct.Account.Owner = owner
	return nil
}

func (acct *BorrowedAccount) SetLamports(lamports uint64) error {
	if !acct.IsOwnedByCurrentProgram() && lamports < acct.Lamports() {
		return InstrErrExternalAccountLamportSpend
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyLamportChange
	}
	if acct.IsExecutable() {
		return InstrErrExecutableLamportChange
	}
	if acct.Lamports() == lamports {
		return nil
	}

	err := acct.Touch()
	if err != nil {
		return err
	}
	acct.Account.Lamports = lamports
	return nil
}

func (acct *BorrowedAccount) CheckedAddLamports(lamports uint64) error {
	sum, err := safemath.CheckedAddU64(acct.Lamports(), lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(sum)
}

func (acct *BorrowedAccount) CheckedSubLamports(lamports uint64) error {
	diff, err := safemath.CheckedSubU64(acct.Lamports(), lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(diff)
}
