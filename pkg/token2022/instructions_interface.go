package token2022

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"
	"github.com/minio/sha256-simd"
	"go.firedancer.io/extmint/pkg/sealevel"
)

const DiscriminatorLen = 8

type Discriminator [DiscriminatorLen]byte

// interfaceDiscriminator is the first 8 bytes of sha256(namespace:name).
func interfaceDiscriminator(preimage string) Discriminator {
	var d Discriminator
	hash := sha256.Sum256([]byte(preimage))
	copy(d[:], hash[:DiscriminatorLen])
	return d
}

var (
	InitializeMetadataDiscriminator = interfaceDiscriminator("spl_token_metadata_interface:initialize_account")
	InitializeGroupDiscriminator    = interfaceDiscriminator("spl_token_group_interface:initialize_token_group")
	InitializeMemberDiscriminator   = interfaceDiscriminator("spl_token_group_interface:initialize_member")
)

func hasDiscriminator(data []byte, d Discriminator) bool {
	return len(data) >= DiscriminatorLen && bytes.Equal(data[:DiscriminatorLen], d[:])
}

// InitializeMetadata writes the token-metadata extension into the mint,
// growing the account to fit.
//
// # Account references
//
//	[0] = [WRITE] metadata
//	[1] = [] update authority
//	[2] = [] mint
//	[3] = [SIGNER] mint authority
type InitializeMetadata struct {
	Metadata        solana.PublicKey
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey

	Name   string
	Symbol string
	URI    string
}

func (inst *InitializeMetadata) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	inst.Name, err = readString(decoder)
	if err != nil {
		return err
	}
	inst.Symbol, err = readString(decoder)
	if err != nil {
		return err
	}
	inst.URI, err = readString(decoder)
	return err
}

func (inst *InitializeMetadata) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(InitializeMetadataDiscriminator[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteBytes(EncodeMetadataFields(inst.Name, inst.Symbol, inst.URI), false)
	return err
}

// EncodeMetadataFields returns name, symbol and uri each prefixed with a
// u32 little-endian length.
func EncodeMetadataFields(name, symbol, uri string) []byte {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)
	for _, s := range []string{name, symbol, uri} {
		// writes to a bytes.Buffer do not fail
		_ = writeString(encoder, s)
	}
	return buf.Bytes()
}

func (inst *InitializeMetadata) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{
		sealevel.NewAccountMeta(inst.Metadata, false),
		sealevel.NewReadonlyAccountMeta(inst.UpdateAuthority, false),
		sealevel.NewReadonlyAccountMeta(inst.Mint, false),
		sealevel.NewReadonlyAccountMeta(inst.MintAuthority, true),
	}
}

func (inst *InitializeMetadata) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeMetadata) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeMetadata) EncodeToTree(parent treeout.Branches) {
	accts := inst.Accounts()
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("InitializeMetadata")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=3]").ParentFunc(func(paramsBranch treeout.Branches) {
						paramsBranch.Child(format.Param("  Name", inst.Name))
						paramsBranch.Child(format.Param("Symbol", inst.Symbol))
						paramsBranch.Child(format.Param("   URI", inst.URI))
					})
					instructionBranch.Child("Accounts[len=4]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("       metadata", accts[0].SolanaMeta()))
						accountsBranch.Child(format.Meta("updateAuthority", accts[1].SolanaMeta()))
						accountsBranch.Child(format.Meta("           mint", accts[2].SolanaMeta()))
						accountsBranch.Child(format.Meta("  mintAuthority", accts[3].SolanaMeta()))
					})
				})
		})
}

// InitializeGroup writes the token-group extension into the mint.
//
// # Account references
//
//	[0] = [WRITE] group
//	[1] = [] mint
//	[2] = [SIGNER] mint authority
type InitializeGroup struct {
	Group         solana.PublicKey
	Mint          solana.PublicKey
	MintAuthority solana.PublicKey

	UpdateAuthority solana.PublicKey
	MaxSize         uint64
}

func (inst *InitializeGroup) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	updateAuthority, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(inst.UpdateAuthority[:], updateAuthority)

	inst.MaxSize, err = decoder.ReadUint64(bin.LE)
	return err
}

func (inst *InitializeGroup) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(InitializeGroupDiscriminator[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteBytes(inst.UpdateAuthority[:], false)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(inst.MaxSize, bin.LE)
}

func (inst *InitializeGroup) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{
		sealevel.NewAccountMeta(inst.Group, false),
		sealevel.NewReadonlyAccountMeta(inst.Mint, false),
		sealevel.NewReadonlyAccountMeta(inst.MintAuthority, true),
	}
}

func (inst *InitializeGroup) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeGroup) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeGroup) EncodeToTree(parent treeout.Branches) {
	accts := inst.Accounts()
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("InitializeGroup")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=2]").ParentFunc(func(paramsBranch treeout.Branches) {
						paramsBranch.Child(format.Param("UpdateAuthority", inst.UpdateAuthority))
						paramsBranch.Child(format.Param("        MaxSize", inst.MaxSize))
					})
					instructionBranch.Child("Accounts[len=3]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("        group", accts[0].SolanaMeta()))
						accountsBranch.Child(format.Meta("         mint", accts[1].SolanaMeta()))
						accountsBranch.Child(format.Meta("mintAuthority", accts[2].SolanaMeta()))
					})
				})
		})
}

// InitializeMember adds the member mint to a group. The group's update
// authority must sign.
//
// # Account references
//
//	[0] = [WRITE] member
//	[1] = [] member mint
//	[2] = [SIGNER] member mint authority
//	[3] = [WRITE] group
//	[4] = [SIGNER] group update authority
type InitializeMember struct {
	Member               solana.PublicKey
	MemberMint           solana.PublicKey
	MemberMintAuthority  solana.PublicKey
	Group                solana.PublicKey
	GroupUpdateAuthority solana.PublicKey
}

func (inst *InitializeMember) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteBytes(InitializeMemberDiscriminator[:], false)
}

func (inst *InitializeMember) Accounts() []sealevel.AccountMeta {
	return []sealevel.AccountMeta{
		sealevel.NewAccountMeta(inst.Member, false),
		sealevel.NewReadonlyAccountMeta(inst.MemberMint, false),
		sealevel.NewReadonlyAccountMeta(inst.MemberMintAuthority, true),
		sealevel.NewAccountMeta(inst.Group, false),
		sealevel.NewReadonlyAccountMeta(inst.GroupUpdateAuthority, true),
	}
}

func (inst *InitializeMember) Build() sealevel.Instruction {
	return build(inst, inst.Accounts())
}

func (inst *InitializeMember) Invoke(inv sealevel.Invoker) error {
	return inv.Invoke(inst.Build())
}

func (inst *InitializeMember) EncodeToTree(parent treeout.Branches) {
	accts := inst.Accounts()
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("InitializeMember")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Params[len=0]").ParentFunc(func(paramsBranch treeout.Branches) {})
					instructionBranch.Child("Accounts[len=5]").ParentFunc(func(accountsBranch treeout.Branches) {
						accountsBranch.Child(format.Meta("              member", accts[0].SolanaMeta()))
						accountsBranch.Child(format.Meta("          memberMint", accts[1].SolanaMeta()))
						accountsBranch.Child(format.Meta(" memberMintAuthority", accts[2].SolanaMeta()))
						accountsBranch.Child(format.Meta("               group", accts[3].SolanaMeta()))
						accountsBranch.Child(format.Meta("groupUpdateAuthority", accts[4].SolanaMeta()))
					})
				})
		})
}
