package program

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/system"
	"go.firedancer.io/extmint/pkg/token2022"
)

// NewMetadataInstruction returns the top-level instruction that runs
// MetadataFlow.
//
// # Account references
//
//	[0] = [WRITE, SIGNER] mint
//	[1] = [WRITE, SIGNER] payer
//	[2] = [] token program
//	[3] = [] system program
func NewMetadataInstruction(mint, payer solana.PublicKey) sealevel.Instruction {
	return sealevel.Instruction{
		ProgramId: ProgramID,
		Accounts: []sealevel.AccountMeta{
			sealevel.NewAccountMeta(mint, true),
			sealevel.NewAccountMeta(payer, true),
			sealevel.NewReadonlyAccountMeta(token2022.ProgramID, false),
			sealevel.NewReadonlyAccountMeta(system.ProgramID, false),
		},
		Data: []byte{InstrTypeMetadata},
	}
}

// NewGroupInstruction returns the top-level instruction that runs GroupFlow.
// Accounts are laid out as in NewMetadataInstruction.
func NewGroupInstruction(mint, payer solana.PublicKey) sealevel.Instruction {
	ix := NewMetadataInstruction(mint, payer)
	ix.Data = []byte{InstrTypeGroup}
	return ix
}

// NewGroupMemberInstruction returns the top-level instruction that runs
// GroupMemberFlow.
//
// # Account references
//
//	[0] = [WRITE, SIGNER] member mint
//	[1] = [WRITE, SIGNER] group
//	[2] = [WRITE, SIGNER] payer
//	[3] = [] token program
//	[4] = [] system program
func NewGroupMemberInstruction(member, group, payer solana.PublicKey) sealevel.Instruction {
	return sealevel.Instruction{
		ProgramId: ProgramID,
		Accounts: []sealevel.AccountMeta{
			sealevel.NewAccountMeta(member, true),
			sealevel.NewAccountMeta(group, true),
			sealevel.NewAccountMeta(payer, true),
			sealevel.NewReadonlyAccountMeta(token2022.ProgramID, false),
			sealevel.NewReadonlyAccountMeta(system.ProgramID, false),
		},
		Data: []byte{InstrTypeGroupMember},
	}
}
