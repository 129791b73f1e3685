package sealevel

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/cu"
	"go.firedancer.io/extmint/pkg/features"
	"go.firedancer.io/extmint/pkg/rent"
	"k8s.io/klog/v2"
)

type ExecutionCtx struct {
	Log                Logger
	Accounts           accounts.Accounts
	TransactionContext *TransactionCtx
	ComputeMeter       cu.ComputeMeter
	Features           *features.Features
	Rent               rent.Rent
	Programs           *Registry
}

// TransactionError reports which top-level instruction failed.
type TransactionError struct {
	InstructionIndex int
	Err              error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %s", e.InstructionIndex, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func NewExecutionCtx(store accounts.Accounts, txCtx *TransactionCtx, programs *Registry, f *features.Features, r rent.Rent) *ExecutionCtx {
	if f == nil {
		f = features.NewFeaturesDefault()
	}
	return &ExecutionCtx{
		Log:                nopLogger{},
		Accounts:           store,
		TransactionContext: txCtx,
		ComputeMeter:       cu.NewComputeMeterDefault(),
		Features:           f,
		Rent:               r,
		Programs:           programs,
	}
}

func (execCtx *ExecutionCtx) GetRent() rent.Rent {
	return execCtx.Rent
}

// ProcessTransaction executes instrs in order against the loaded transaction
// accounts. Accounts are written back to the store only if every instruction
// succeeds and no account ends up rent paying.
func (execCtx *ExecutionCtx) ProcessTransaction(instrs ...Instruction) error {
	txCtx := execCtx.TransactionContext

	keys := make([]solana.PublicKey, len(txCtx.Accounts.Accounts))
	preStates := make([]*rent.RentStateInfo, len(keys))
	for idx, acct := range txCtx.Accounts.Accounts {
		keys[idx] = acct.Key
		preStates[idx] = rent.NewRentStateInfo(acct, &execCtx.Rent)
	}

	for idx, ix := range instrs {
		instrAccts, programIndices, err := execCtx.prepareTopLevelInstruction(ix)
		if err == nil {
			err = execCtx.ProcessInstruction(ix.Data, instrAccts, programIndices)
		}
		if err != nil {
			transactionComputeUnits.Observe(float64(execCtx.ComputeMeter.Used()))
			return &TransactionError{InstructionIndex: idx, Err: err}
		}
	}
	transactionComputeUnits.Observe(float64(execCtx.ComputeMeter.Used()))

	postStates := make([]*rent.RentStateInfo, len(keys))
	for idx, acct := range txCtx.Accounts.Accounts {
		if !txCtx.Accounts.Touched[idx] {
			preStates[idx] = nil
			continue
		}
		postStates[idx] = rent.NewRentStateInfo(acct, &execCtx.Rent)
	}
	err := rent.VerifyRentStateChanges(keys, preStates, postStates)
	if err != nil {
		return err
	}

	for idx, acct := range txCtx.Accounts.Accounts {
		if !txCtx.Accounts.Touched[idx] {
			continue
		}
		pk := [32]byte(acct.Key)
		err = execCtx.Accounts.SetAccount(&pk, acct)
		if err != nil {
			return err
		}
	}

	return nil
}

func (execCtx *ExecutionCtx) prepareTopLevelInstruction(ix Instruction) ([]InstructionAccount, []uint64, error) {
	txCtx := execCtx.TransactionContext

	instructionAccounts := make([]InstructionAccount, 0, len(ix.Accounts))
	for instrAcctIdx, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, nil, err
		}

		indexInCallee := uint64(instrAcctIdx)
		for pos, instrAcct := range instructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				indexInCallee = uint64(pos)
				break
			}
		}

		instructionAccounts = append(instructionAccounts, InstructionAccount{
			IndexInTransaction: indexInTx,
			IndexInCaller:      indexInTx,
			IndexInCallee:      indexInCallee,
			IsSigner:           accountMeta.IsSigner,
			IsWritable:         accountMeta.IsWritable,
		})
	}

	programIdx, err := txCtx.IndexOfAccount(ix.ProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", ix.ProgramId)
		return nil, nil, InstrErrUnsupportedProgramId
	}
	programAcct, err := txCtx.AccountAtIndex(programIdx)
	if err != nil {
		return nil, nil, err
	}
	if !programAcct.IsExecutable() {
		klog.Errorf("account %s is not executable", ix.ProgramId)
		return nil, nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, []uint64{programIdx}, nil
}

func (execCtx *ExecutionCtx) PrepareInstruction(ix Instruction, signers []solana.PublicKey) ([]InstructionAccount, []uint64, error) {
	txCtx := execCtx.TransactionContext

	ixCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, nil, err
	}

	dedupInstructionAccounts := make([]InstructionAccount, 0)
	duplicateIndices := make([]uint64, 0)

	for instructionAcctIndex, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, nil, err
		}

		duplicateIndex := -1
		for index, instrAcct := range dedupInstructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				duplicateIndex = index
				break
			}
		}

		if duplicateIndex != -1 {
			duplicateIndices = append(duplicateIndices, uint64(duplicateIndex))
			dedupInstructionAccounts[duplicateIndex].IsSigner = dedupInstructionAccounts[duplicateIndex].IsSigner || accountMeta.IsSigner
			dedupInstructionAccounts[duplicateIndex].IsWritable = dedupInstructionAccounts[duplicateIndex].IsWritable || accountMeta.IsWritable
		} else {
			indexInCaller, err := ixCtx.IndexOfInstructionAccount(txCtx, accountMeta.Pubkey)
			if err != nil {
				return nil, nil, err
			}
			duplicateIndices = append(duplicateIndices, uint64(len(dedupInstructionAccounts)))

			instrAcct := InstructionAccount{IndexInTransaction: indexInTx,
				IndexInCaller: indexInCaller,
				IndexInCallee: uint64(instructionAcctIndex),
				IsSigner:      accountMeta.IsSigner,
				IsWritable:    accountMeta.IsWritable}

			dedupInstructionAccounts = append(dedupInstructionAccounts, instrAcct)
		}
	}

	for _, instructionAcct := range dedupInstructionAccounts {
		borrowedAcct, err := ixCtx.BorrowInstructionAccount(txCtx, instructionAcct.IndexInCaller)
		if err != nil {
			return nil, nil, err
		}

		// read-only in caller cannot become writable in callee
		if instructionAcct.IsWritable && !borrowedAcct.IsWritable() {
			klog.Errorf("%s: writable privilege escalated", borrowedAcct.Key())
			return nil, nil, InstrErrPrivilegeEscalation
		}

		// to be signed in the callee, it must be either signed in the
		// caller or by the program
		presentInSigners := false
		for _, addr := range signers {
			if addr == borrowedAcct.Key() {
				presentInSigners = true
				break
			}
		}
		if instructionAcct.IsSigner && !(borrowedAcct.IsSigner() || presentInSigners) {
			klog.Errorf("%s: signer privilege escalated", borrowedAcct.Key())
			return nil, nil, InstrErrPrivilegeEscalation
		}
	}

	instructionAccounts := make([]InstructionAccount, 0, len(duplicateIndices))
	for _, duplicateIndex := range duplicateIndices {
		instructionAccounts = append(instructionAccounts, dedupInstructionAccounts[duplicateIndex])
	}

	calleeProgramId := ix.ProgramId
	programAcctIdx, err := txCtx.IndexOfAccount(calleeProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", calleeProgramId)
		return nil, nil, err
	}

	programAcct, err := txCtx.AccountAtIndex(programAcctIdx)
	if err != nil {
		return nil, nil, err
	}
	if !programAcct.IsExecutable() {
		klog.Errorf("account %s is not executable", calleeProgramId)
		return nil, nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, []uint64{programAcctIdx}, nil
}

func (execCtx *ExecutionCtx) ProcessInstruction(instrData []byte, instructionAccts []InstructionAccount, programIndices []uint64) error {
	nextInstrCtx := new(InstructionCtx)
	nextInstrCtx.Configure(programIndices, instructionAccts, instrData)

	err := execCtx.Push(nextInstrCtx)
	if err != nil {
		return err
	}

	err1 := execCtx.ExecuteInstruction()

	err2 := execCtx.Pop()

	if err1 != nil {
		return err1
	} else if err2 != nil {
		return err2
	}

	return nil
}

func (execCtx *ExecutionCtx) ExecuteInstruction() error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	borrowedRootAccount, err := instrCtx.BorrowProgramAccount(txCtx, 0)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}

	if borrowedRootAccount.Owner() != NativeLoaderAddr {
		klog.Errorf("program %s is not owned by the native loader", borrowedRootAccount.Key())
		return InstrErrUnsupportedProgramId
	}
	builtinId := borrowedRootAccount.Key()

	nativeProgram, err := execCtx.Programs.ResolveNativeProgramById(builtinId)
	if err != nil {
		return err
	}

	execCtx.Log.Log(fmt.Sprintf("Program %s invoke [%d]", builtinId, instrCtx.StackHeight))

	err = execCtx.ComputeMeter.Consume(nativeProgram.ComputeUnits)
	if err == nil {
		err = nativeProgram.Execute(execCtx)
	} else {
		err = InstrErrComputationalBudgetExceeded
	}
	observeInvocation(nativeProgram.Name, err)

	if err != nil {
		execCtx.Log.Log(fmt.Sprintf("Program %s failed: %s", builtinId, err))
		klog.V(2).Infof("program %s (%s) failed: %s", nativeProgram.Name, builtinId, err)
		return err
	}
	execCtx.Log.Log(fmt.Sprintf("Program %s success", builtinId))
	return nil
}

func (execCtx *ExecutionCtx) Push(instrCtx *InstructionCtx) error {
	txCtx := execCtx.TransactionContext

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}

	if txCtx.InstructionCtxStackHeight() != 0 {
		var contains bool
		for level := uint64(0); level < txCtx.InstructionCtxStackHeight(); level++ {
			ic, err := txCtx.InstructionCtxAtNestingLevel(level)
			if err != nil {
				continue
			}
			key, err := ic.LastProgramKey(txCtx)
			if err == nil && key == programId {
				contains = true
				break
			}
		}

		var isLast bool
		ic, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}
		key, err := ic.LastProgramKey(txCtx)
		if err == nil && key == programId {
			isLast = true
		}

		if contains && !isLast {
			return InstrErrReentrancyNotAllowed
		}
	}

	return txCtx.Push(instrCtx)
}

func (execCtx *ExecutionCtx) Pop() error {
	return execCtx.TransactionContext.Pop()
}

func (execCtx *ExecutionCtx) StackHeight() uint64 {
	return execCtx.TransactionContext.InstructionCtxStackHeight()
}

func (execCtx *ExecutionCtx) NativeInvoke(instruction Instruction, signers []solana.PublicKey) error {
	err := execCtx.ComputeMeter.Consume(CUInvokeUnits)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	instrAccts, programIndices, err := execCtx.PrepareInstruction(instruction, signers)
	if err != nil {
		return err
	}

	return execCtx.ProcessInstruction(instruction.Data, instrAccts, programIndices)
}

// Invoke makes ExecutionCtx an Invoker for the currently executing program.
func (execCtx *ExecutionCtx) Invoke(ix Instruction) error {
	return execCtx.NativeInvoke(ix, nil)
}

// CurrentInstruction returns the borrowing context of the executing program.
func (execCtx *ExecutionCtx) CurrentInstruction() (*TransactionCtx, *InstructionCtx, error) {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, nil, err
	}
	return txCtx, instrCtx, nil
}

// IsInstructionError reports whether err is one of the InstrErr values.
func IsInstructionError(err error) bool {
	for sentinel := range instrErrCodes {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
