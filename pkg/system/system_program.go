package system

import (
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.firedancer.io/extmint/pkg/sealevel"
	"k8s.io/klog/v2"
)

const MaxPermittedDataLen = sealevel.MaxPermittedDataLength

var (
	SystemProgErrAccountAlreadyInUse        = errors.New("SystemProgErrAccountAlreadyInUse")
	SystemProgErrInvalidAccountDataLength   = errors.New("SystemProgErrInvalidAccountDataLength")
	SystemProgErrResultWithNegativeLamports = errors.New("SystemProgErrResultWithNegativeLamports")
)

var Program = sealevel.NativeProgram{
	Name:         "system",
	ComputeUnits: sealevel.CUSystemProgramDefaultComputeUnits,
	Execute:      Execute,
}

func extractAddress(txCtx *sealevel.TransactionCtx, instrCtx *sealevel.InstructionCtx, instrAcctIdx uint64) (solana.PublicKey, error) {
	idxInTx, err := instrCtx.IndexOfInstructionAccountInTransaction(instrAcctIdx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return txCtx.KeyOfAccountAtIndex(idxInTx)
}

func Execute(execCtx *sealevel.ExecutionCtx) error {
	txCtx, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}

	decoder := bin.NewBinDecoder(instrCtx.Data)

	instructionType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return sealevel.InstrErrInvalidInstructionData
	}

	signers, err := instrCtx.Signers(txCtx)
	if err != nil {
		return err
	}

	switch instructionType {

	case InstrTypeCreateAccount:
		{
			var createAccount InstrCreateAccount
			err = createAccount.UnmarshalWithDecoder(decoder)
			if err != nil {
				return sealevel.InstrErrInvalidInstructionData
			}
			err = instrCtx.CheckNumOfInstructionAccounts(2)
			if err != nil {
				return err
			}
			toAddr, err := extractAddress(txCtx, instrCtx, 1)
			if err != nil {
				return err
			}
			err = CreateAccountProcess(execCtx, toAddr, createAccount.Lamports, createAccount.Space, createAccount.Owner, signers)
			if err != nil {
				return err
			}
		}

	case InstrTypeAssign:
		{
			var assign InstrAssign
			err = assign.UnmarshalWithDecoder(decoder)
			if err != nil {
				return sealevel.InstrErrInvalidInstructionData
			}
			err = instrCtx.CheckNumOfInstructionAccounts(1)
			if err != nil {
				return err
			}
			acct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
			if err != nil {
				return err
			}
			err = Assign(acct, acct.Key(), assign.Owner, signers)
			if err != nil {
				return err
			}
		}

	case InstrTypeTransfer:
		{
			var transfer InstrTransfer
			err = transfer.UnmarshalWithDecoder(decoder)
			if err != nil {
				return sealevel.InstrErrInvalidInstructionData
			}
			err = instrCtx.CheckNumOfInstructionAccounts(2)
			if err != nil {
				return err
			}
			err = Transfer(execCtx, 0, 1, transfer.Lamports)
			if err != nil {
				return err
			}
		}

	case InstrTypeAllocate:
		{
			var allocate InstrAllocate
			err = allocate.UnmarshalWithDecoder(decoder)
			if err != nil {
				return sealevel.InstrErrInvalidInstructionData
			}
			err = instrCtx.CheckNumOfInstructionAccounts(1)
			if err != nil {
				return err
			}
			acct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
			if err != nil {
				return err
			}
			err = Allocate(execCtx, acct, acct.Key(), allocate.Space, signers)
			if err != nil {
				return err
			}
		}

	default:
		klog.Errorf("system program: unsupported instruction type %d", instructionType)
		return sealevel.InstrErrInvalidInstructionData
	}

	return nil
}

func CreateAccountProcess(execCtx *sealevel.ExecutionCtx, toAddr solana.PublicKey, lamports uint64, space uint64, owner solana.PublicKey, signers []solana.PublicKey) error {
	txCtx, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}

	toAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}

	if toAcct.Lamports() > 0 {
		klog.Errorf("CreateAccount: account %s already in use (non-zero lamports)", toAddr)
		return SystemProgErrAccountAlreadyInUse
	}

	err = AllocateAndAssign(execCtx, toAcct, toAddr, space, owner, signers)
	if err != nil {
		return err
	}

	return Transfer(execCtx, 0, 1, lamports)
}

func AllocateAndAssign(execCtx *sealevel.ExecutionCtx, toAcct *sealevel.BorrowedAccount, toAddr solana.PublicKey, space uint64, owner solana.PublicKey, signers []solana.PublicKey) error {
	err := Allocate(execCtx, toAcct, toAddr, space, signers)
	if err != nil {
		return err
	}
	return Assign(toAcct, toAddr, owner, signers)
}

func Allocate(execCtx *sealevel.ExecutionCtx, acct *sealevel.BorrowedAccount, address solana.PublicKey, space uint64, signers []solana.PublicKey) error {
	if !lo.Contains(signers, address) {
		klog.Errorf("Allocate: 'to' account %s must sign", address)
		return sealevel.InstrErrMissingRequiredSignature
	}

	if len(acct.Data()) != 0 || acct.Owner() != ProgramID {
		klog.Errorf("Allocate: account %s already in use", address)
		return SystemProgErrAccountAlreadyInUse
	}

	if space > MaxPermittedDataLen {
		klog.Errorf("Allocate: requested %d, max allowed %d", space, MaxPermittedDataLen)
		return SystemProgErrInvalidAccountDataLength
	}

	return acct.SetDataLength(execCtx.Features, space)
}

func Assign(acct *sealevel.BorrowedAccount, address solana.PublicKey, owner solana.PublicKey, signers []solana.PublicKey) error {
	if acct.Owner() == owner {
		return nil
	}

	if !lo.Contains(signers, address) {
		klog.Errorf("Assign: account %s must sign", address)
		return sealevel.InstrErrMissingRequiredSignature
	}

	return acct.SetOwner(owner)
}

func Transfer(execCtx *sealevel.ExecutionCtx, fromAcctIdx uint64, toAcctIdx uint64, lamports uint64) error {
	_, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}

	isSigner, err := instrCtx.IsInstructionAccountSigner(fromAcctIdx)
	if err != nil {
		return err
	}

	if !isSigner {
		klog.Errorf("Transfer: 'from' account must sign")
		return sealevel.InstrErrMissingRequiredSignature
	}

	return transferInternal(execCtx, fromAcctIdx, toAcctIdx, lamports)
}

func transferInternal(execCtx *sealevel.ExecutionCtx, fromAcctIdx uint64, toAcctIdx uint64, lamports uint64) error {
	txCtx, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}

	from, err := instrCtx.BorrowInstructionAccount(txCtx, fromAcctIdx)
	if err != nil {
		return err
	}

	if len(from.Data()) != 0 {
		klog.Errorf("Transfer: 'from' must not carry data")
		return sealevel.InstrErrInvalidArgument
	}

	if lamports > from.Lamports() {
		klog.Errorf("Transfer: insufficient lamports %d, need %d", from.Lamports(), lamports)
		return SystemProgErrResultWithNegativeLamports
	}

	err = from.CheckedSubLamports(lamports)
	if err != nil {
		return err
	}

	to, err := instrCtx.BorrowInstructionAccount(txCtx, toAcctIdx)
	if err != nil {
		return err
	}

	return to.CheckedAddLamports(lamports)
}
