package token2022

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"
	"go.firedancer.io/extmint/pkg/sealevel"
)

// Builder is implemented by every Token-2022 instruction in this package.
type Builder interface {
	Build() sealevel.Instruction
	Invoke(inv sealevel.Invoker) error
	EncodeToTree(parent treeout.Branches)
}

func build(inst encodable, accts []sealevel.AccountMeta) sealevel.Instruction {
	data, err := marshal(inst)
	if err != nil {
		panic(fmt.Sprintf("encoding %T: %s", inst, err))
	}
	return sealevel.Instruction{ProgramId: ProgramID, Accounts: accts, Data: data}
}

// InitializeMint2 initializes the base mint. Any pointer extension must
// already be in place.
//
// # Account references
//
//	[0] = [WRITE] mint
type InitializeMint2 struct {
	Mint            solana.PublicKey
	Decimals        uint8
	MintAuthority   solana.PublicKey
	FreezeAuthority *solana.PublicKey
}

func (inst *InitializeMint2) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	inst.Decimals, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	mintAuthority, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(inst.MintAuthority[:], mintAuthority)

	hasFreezeAuthority, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	switch hasFreezeAuthority {
	case 0:
		inst.FreezeAuthority = nil
	case 1:
		freezeAuthority, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return err
		}
		pk := solana.PublicKeyFromBytes(freezeAuthority)
		inst.FreezeAuthority = &pk
	default:
		return TokenErrInvalidInstruction
	}
	return nil
}

func (inst *InitializeMint2) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint8(InstrTypeInitializeMint2)
	if err != nil {
		return err
	}

	err = encoder.WriteUint8(inst.Decimals)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(inst.MintAuthority[:], false)
	if err != nil {
		return err
	}

	if inst.FreezeAuthority == nil {
		return encoder.WriteUint8(0)
	}
	err = encoder.WriteUint8(1)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(inst.FreezeAuthority[:], false)
}

func (inst *InitializeMint2) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{sealevel.NewAccountMeta(inst.Mint, false)}
}

func (inst *InitializeMint2) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeMint2) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeMint2) EncodeToTree(parent treeout.Branches) {
	accts := inst.Accounts()
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("InitializeMint2")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=3]").ParentFunc(func(paramsBranch treeout.Branches) {
						paramsBranch.Child(format.Param("       Decimals", inst.Decimals))
						paramsBranch.Child(format.Param("  MintAuthority", inst.MintAuthority))
						paramsBranch.Child(format.Param("FreezeAuthority (OPT)", inst.FreezeAuthority))
					})
					instructionBranch.Child("Accounts[len=1]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("mint", accts[0].SolanaMeta()))
					})
				})
		})
}

// InstrPointerInitialize is the payload shared by the three pointer
// extensions' Initialize instruction.
type InstrPointerInitialize struct {
	Authority solana.PublicKey
	Address   solana.PublicKey
}

func (instr *InstrPointerInitialize) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	p := Pointer{}
	err := p.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}
	instr.Authority, instr.Address = p.Authority, p.Address
	return nil
}

func marshalPointerInitialize(encoder *bin.Encoder, instrType uint8, authority, address solana.PublicKey) error {
	err := encoder.WriteUint8(instrType)
	if err != nil {
		return err
	}
	err = encoder.WriteUint8(PointerInstrTypeInitialize)
	if err != nil {
		return err
	}
	p := Pointer{Authority: authority, Address: address}
	return p.MarshalWithEncoder(encoder)
}

func encodePointerTree(parent treeout.Branches, name string, mint sealevel.AccountMeta, authority, address solana.PublicKey, addressName string) {
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction(name)).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=2]").ParentFunc(func(paramsBranch treeout.Branches) {
						paramsBranch.Child(format.Param("Authority", authority))
						paramsBranch.Child(format.Param(addressName, address))
					})
					instructionBranch.Child("Accounts[len=1]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("mint", mint.SolanaMeta()))
					})
				})
		})
}

// InitializeMetadataPointer records where the mint's metadata lives. It must
// run before InitializeMint2.
//
// # Account references
//
//	[0] = [WRITE] mint
type InitializeMetadataPointer struct {
	Mint            solana.PublicKey
	Authority       solana.PublicKey
	MetadataAddress solana.PublicKey
}

func (inst *InitializeMetadataPointer) MarshalWithEncoder(encoder *bin.Encoder) error {
	return marshalPointerInitialize(encoder, InstrTypeMetadataPointerExtension, inst.Authority, inst.MetadataAddress)
}

func (inst *InitializeMetadataPointer) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{sealevel.NewAccountMeta(inst.Mint, false)}
}

func (inst *InitializeMetadataPointer) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeMetadataPointer) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeMetadataPointer) EncodeToTree(parent treeout.Branches) {
	encodePointerTree(parent, "InitializeMetadataPointer", inst.Accounts()[0], inst.Authority, inst.MetadataAddress, "MetadataAddress")
}

// InitializeGroupPointer records where the mint's group configuration
// lives.
//
// # Account references
//
//	[0] = [WRITE] mint
type InitializeGroupPointer struct {
	Mint         solana.PublicKey
	Authority    solana.PublicKey
	GroupAddress solana.PublicKey
}

func (inst *InitializeGroupPointer) MarshalWithEncoder(encoder *bin.Encoder) error {
	return marshalPointerInitialize(encoder, InstrTypeGroupPointerExtension, inst.Authority, inst.GroupAddress)
}

func (inst *InitializeGroupPointer) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{sealevel.NewAccountMeta(inst.Mint, false)}
}

func (inst *InitializeGroupPointer) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeGroupPointer) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeGroupPointer) EncodeToTree(parent treeout.Branches) {
	encodePointerTree(parent, "InitializeGroupPointer", inst.Accounts()[0], inst.Authority, inst.GroupAddress, "GroupAddress")
}

// InitializeGroupMemberPointer records where the mint's membership record
// lives.
//
// # Account references
//
//	[0] = [WRITE] mint
type InitializeGroupMemberPointer struct {
	Mint          solana.PublicKey
	Authority     solana.PublicKey
	MemberAddress solana.PublicKey
}

func (inst *InitializeGroupMemberPointer) MarshalWithEncoder(encoder *bin.Encoder) error {
	return marshalPointerInitialize(encoder, InstrTypeGroupMemberPointerExtension, inst.Authority, inst.MemberAddress)
}

func (inst *InitializeGroupMemberPointer) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{sealevel.NewAccountMeta(inst.Mint, false)}
}

func (inst *InitializeGroupMemberPointer) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeGroupMemberPointer) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeGroupMemberPointer) EncodeToTree(parent treeout.Branches) {
	encodePointerTree(parent, "InitializeGroupMemberPointer", inst.Accounts()[0], inst.Authority, inst.MemberAddress, "MemberAddress")
}
