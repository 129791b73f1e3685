package runtime

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.firedancer.io/extmint/pkg/sealevel"
)

type TxErrInvalidSignature struct {
	msg string
}

func NewTxErrInvalidSignature(msg string) error {
	return &TxErrInvalidSignature{msg: msg}
}

func (err *TxErrInvalidSignature) Error() string {
	return err.msg
}

// TxErrAccountNotFound is returned when the fee payer does not exist.
var TxErrAccountNotFound = errors.New("TxErrAccountNotFound")

// NewTransaction compiles ixs into a transaction paid for by payer and signs
// it with every key in signers that the message requires.
func NewTransaction(ixs []sealevel.Instruction, blockhash solana.Hash, payer solana.PublicKey, signers ...solana.PrivateKey) (*solana.Transaction, error) {
	solanaIxs := make([]solana.Instruction, len(ixs))
	for idx, ix := range ixs {
		metas := make(solana.AccountMetaSlice, len(ix.Accounts))
		for acctIdx, meta := range ix.Accounts {
			metas[acctIdx] = meta.SolanaMeta()
		}
		solanaIxs[idx] = solana.NewInstruction(ix.ProgramId, metas, ix.Data)
	}

	tx, err := solana.NewTransaction(solanaIxs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("compiling transaction: %w", err)
	}

	keys := lo.SliceToMap(signers, func(k solana.PrivateKey) (solana.PublicKey, solana.PrivateKey) {
		return k.PublicKey(), k
	})
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		k, ok := keys[key]
		if !ok {
			return nil
		}
		return &k
	})
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return tx, nil
}

func verifySignatures(tx *solana.Transaction) error {
	numSigners := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != numSigners {
		return NewTxErrInvalidSignature(fmt.Sprintf("expected %d signatures, got %d", numSigners, len(tx.Signatures)))
	}
	err := tx.VerifySignatures()
	if err != nil {
		return NewTxErrInvalidSignature(err.Error())
	}
	return nil
}

func instrsFromTx(tx *solana.Transaction) ([]sealevel.Instruction, error) {
	instrs := make([]sealevel.Instruction, len(tx.Message.Instructions))
	for idx, compiledInstr := range tx.Message.Instructions {
		programId, err := tx.ResolveProgramIDIndex(compiledInstr.ProgramIDIndex)
		if err != nil {
			return nil, err
		}

		ams, err := compiledInstr.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			return nil, err
		}

		var acctMetas []sealevel.AccountMeta
		for _, am := range ams {
			acctMeta := sealevel.AccountMeta{Pubkey: am.PublicKey, IsSigner: am.IsSigner, IsWritable: isWritable(tx, am)}
			acctMetas = append(acctMetas, acctMeta)
		}

		instrs[idx] = sealevel.Instruction{Accounts: acctMetas, ProgramId: programId, Data: compiledInstr.Data}
	}

	return instrs, nil
}

// isWritable demotes program ids to read-only regardless of the message
// header.
func isWritable(tx *solana.Transaction, am *solana.AccountMeta) bool {
	if !am.IsWritable {
		return false
	}

	programIds, err := tx.GetProgramIDs()
	if err != nil {
		return false
	}
	return !lo.Contains(programIds, am.PublicKey)
}
