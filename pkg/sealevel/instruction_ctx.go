package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/safemath"
)

type InstructionCtx struct {
	ProgramAccounts     []uint64
	InstructionAccounts []InstructionAccount
	Data                []byte
	StackHeight         uint64
	lamportSum          uint64
}

func (instrCtx *InstructionCtx) Configure(programAccounts []uint64, instructionAccounts []InstructionAccount, data []byte) {
	instrCtx.ProgramAccounts = programAccounts
	instrCtx.InstructionAccounts = instructionAccounts
	instrCtx.Data = data
}

func (instrCtx *InstructionCtx) NumberOfProgramAccounts() uint64 {
	return uint64(len(instrCtx.ProgramAccounts))
}

func (instrCtx *InstructionCtx) NumberOfInstructionAccounts() uint64 {
	return uint64(len(instrCtx.InstructionAccounts))
}

func (instrCtx *InstructionCtx) CheckNumOfInstructionAccounts(expectedAtLeast uint64) error {
	if instrCtx.NumberOfInstructionAccounts() < expectedAtLeast {
		return InstrErrNotEnoughAccountKeys
	}
	return nil
}

func (instrCtx *InstructionCtx) IndexOfProgramAccountInTransaction(programAccountIndex uint64) (uint64, error) {
	if programAccountIndex >= instrCtx.NumberOfProgramAccounts() {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.ProgramAccounts[programAccountIndex], nil
}

func (instrCtx *InstructionCtx) IndexOfInstructionAccountInTransaction(instrAcctIdx uint64) (uint64, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IndexInTransaction, nil
}

// IndexOfInstructionAccount finds the first instruction account referring to
// pubkey.
func (instrCtx *InstructionCtx) IndexOfInstructionAccount(txCtx *TransactionCtx, pubkey solana.PublicKey) (uint64, error) {
	for idx, instrAcct := range instrCtx.InstructionAccounts {
		key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
		if err != nil {
			return 0, err
		}
		if key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (instrCtx *InstructionCtx) LastProgramKey(txCtx *TransactionCtx) (solana.PublicKey, error) {
	programAccountIndex := safemath.SaturatingSubU64(instrCtx.NumberOfProgramAccounts(), 1)

	index, err := instrCtx.IndexOfProgramAccountInTransaction(programAccountIndex)
	if err != nil {
		return solana.PublicKey{}, err
	}

	return txCtx.KeyOfAccountAtIndex(index)
}

func (instrCtx *InstructionCtx) IsInstructionAccountSigner(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return false, InstrErrMissingAccount
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IsSigner, nil
}

func (instrCtx *InstructionCtx) IsInstructionAccountWritable(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		return false, InstrErrMissingAccount
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IsWritable, nil
}

func (instrCtx *InstructionCtx) Signers(txCtx *TransactionCtx) ([]solana.PublicKey, error) {
	var signers []solana.PublicKey
	for _, instrAcct := range instrCtx.InstructionAccounts {
		if !instrAcct.IsSigner {
			continue
		}
		key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
		if err != nil {
			return nil, err
		}
		signers = append(signers, key)
	}
	return signers, nil
}

// AccountMetas rebuilds the account references this instruction was invoked with.
func (instrCtx *InstructionCtx) AccountMetas(txCtx *TransactionCtx) ([]AccountMeta, error) {
	metas := make([]AccountMeta, 0, len(instrCtx.InstructionAccounts))
	for _, instrAcct := range instrCtx.InstructionAccounts {
		key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
		if err != nil {
			return nil, err
		}
		metas = append(metas, AccountMeta{Pubkey: key, IsSigner: instrAcct.IsSigner, IsWritable: instrAcct.IsWritable})
	}
	return metas, nil
}

func (instrCtx *InstructionCtx) BorrowInstructionAccount(txCtx *TransactionCtx, instrAcctIdx uint64) (*BorrowedAccount, error) {
	idxInTx, err := instrCtx.IndexOfInstructionAccountInTransaction(instrAcctIdx)
	if err != nil {
		return nil, err
	}
	acct, err := txCtx.AccountAtIndex(idxInTx)
	if err != nil {
		return nil, err
	}
	return &BorrowedAccount{TxCtx: txCtx, InstrCtx: instrCtx, IndexInTransaction: idxInTx, IndexInInstruction: instrAcctIdx, Account: acct}, nil
}

func (instrCtx *InstructionCtx) BorrowProgramAccount(txCtx *TransactionCtx, programAcctIdx uint64) (*BorrowedAccount, error) {
	idxInTx, err := instrCtx.IndexOfProgramAccountInTransaction(programAcctIdx)
	if err != nil {
		return nil, err
	}
	acct, err := txCtx.AccountAtIndex(idxInTx)
	if err != nil {
		return nil, err
	}
	return &BorrowedAccount{TxCtx: txCtx, InstrCtx: instrCtx, IndexInTransaction: idxInTx, IndexInInstruction: programAcctIdx, Account: acct, isProgram: true}, nil
}

func (instrCtx *InstructionCtx) BorrowLastProgramAccount(txCtx *TransactionCtx) (*BorrowedAccount, error) {
	return instrCtx.BorrowProgramAccount(txCtx, safemath.SaturatingSubU64(instrCtx.NumberOfProgramAccounts(), 1))
}
