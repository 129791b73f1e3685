package system

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"
	"go.firedancer.io/extmint/pkg/sealevel"
)

const ProgramName = "System Program"

var ProgramID = solana.PublicKey(sealevel.SystemProgramAddr)

const (
	InstrTypeCreateAccount = 0
	InstrTypeAssign        = 1
	InstrTypeTransfer      = 2
	InstrTypeAllocate      = 8
)

type InstrCreateAccount struct {
	Lamports uint64
	Space    uint64
	Owner    solana.PublicKey
}

type InstrAssign struct {
	Owner solana.PublicKey
}

type InstrTransfer struct {
	Lamports uint64
}

type InstrAllocate struct {
	Space uint64
}

func (instr *InstrCreateAccount) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Lamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.Space, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(instr.Owner[:], pk)

	return nil
}

func (instr *InstrCreateAccount) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(InstrTypeCreateAccount, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Lamports, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Space, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteBytes(instr.Owner[:], false)
}

func (instr *InstrAssign) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(instr.Owner[:], pk)
	return nil
}

func (instr *InstrAssign) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(InstrTypeAssign, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(instr.Owner[:], false)
}

func (instr *InstrTransfer) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Lamports, err = decoder.ReadUint64(bin.LE)
	return err
}

func (instr *InstrTransfer) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(InstrTypeTransfer, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(instr.Lamports, bin.LE)
}

func (instr *InstrAllocate) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Space, err = decoder.ReadUint64(bin.LE)
	return err
}

func (instr *InstrAllocate) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(InstrTypeAllocate, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(instr.Space, bin.LE)
}

// CreateAccount allocates Space bytes for To, funds it with Lamports taken
// from From and assigns it to Owner.
//
// # Account references
//
//	[0] = [WRITE, SIGNER] from
//	[1] = [WRITE, SIGNER] to
type CreateAccount struct {
	From solana.PublicKey
	To   solana.PublicKey
	InstrCreateAccount
}

func (inst *CreateAccount) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{
		sealevel.NewAccountMeta(inst.From, true),
		sealevel.NewAccountMeta(inst.To, true),
	}
}

func (inst *CreateAccount) Build() sealevel.Instruction {
	buf := new(bytes.Buffer)
	err := inst.InstrCreateAccount.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		panic(fmt.Sprintf("encoding CreateAccount: %s", err))
	}
	return sealevel.Instruction{ProgramId: ProgramID, Accounts: inst.Accounts(), Data: buf.Bytes()}
}

func (inst *CreateAccount) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *CreateAccount) EncodeToTree(parent treeout.Branches) {
	accts := inst.Accounts()
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("CreateAccount")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=3]").ParentFunc(func(paramsBranch treeout.Branches) {
						paramsBranch.Child(format.Param("Lamports", inst.Lamports))
						paramsBranch.Child(format.Param("   Space", inst.Space))
						paramsBranch.Child(format.Param("   Owner", inst.Owner))
					})
					instructionBranch.Child("Accounts[len=2]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("from", accts[0].SolanaMeta()))
						accountsBranch.Child(format.Meta("  to", accts[1].SolanaMeta()))
					})
				})
		})
}

// NewCreateAccount returns the CreateAccount that Provision issues.
func NewCreateAccount(payer, target solana.PublicKey, space, lamports uint64, owner solana.PublicKey) *CreateAccount {
	return &CreateAccount{
		From:               payer,
		To:                 target,
		InstrCreateAccount: InstrCreateAccount{Lamports: lamports, Space: space, Owner: owner},
	}
}

// Provision creates target with the given size and balance, owned by owner.
// Both payer and target must sign. Callee errors, such as
// SystemProgErrAccountAlreadyInUse, are returned unchanged.
func Provision(inv sealevel.Invoker, payer, target solana.PublicKey, space, lamports uint64, owner solana.PublicKey) error {
	return NewCreateAccount(payer, target, space, lamports, owner).Invoke(inv)
}

func NewTransferInstruction(from solana.PublicKey, to solana.PublicKey, lamports uint64) sealevel.Instruction {
	buf := new(bytes.Buffer)
	instr := InstrTransfer{Lamports: lamports}
	err := instr.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		panic(fmt.Sprintf("encoding Transfer: %s", err))
	}
	return sealevel.Instruction{
		ProgramId: ProgramID,
		Accounts:  []sealevel.AccountMeta{sealevel.NewAccountMeta(from, true), sealevel.NewAccountMeta(to, false)},
		Data:      buf.Bytes(),
	}
}

func NewAllocateInstruction(pubkey solana.PublicKey, space uint64) sealevel.Instruction {
	buf := new(bytes.Buffer)
	instr := InstrAllocate{Space: space}
	err := instr.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		panic(fmt.Sprintf("encoding Allocate: %s", err))
	}
	return sealevel.Instruction{
		ProgramId: ProgramID,
		Accounts:  []sealevel.AccountMeta{sealevel.NewAccountMeta(pubkey, true)},
		Data:      buf.Bytes(),
	}
}

func NewAssignInstruction(pubkey solana.PublicKey, owner solana.PublicKey) sealevel.Instruction {
	buf := new(bytes.Buffer)
	instr := InstrAssign{Owner: owner}
	err := instr.MarshalWithEncoder(bin.NewBinEncoder(buf))
	if err != nil {
		panic(fmt.Sprintf("encoding Assign: %s", err))
	}
	return sealevel.Instruction{
		ProgramId: ProgramID,
		Accounts:  []sealevel.AccountMeta{sealevel.NewAccountMeta(pubkey, true)},
		Data:      buf.Bytes(),
	}
}
