package token2022

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/treeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/sealevel"
)

func newRandomKey(t *testing.T) solana.PublicKey {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return privKey.PublicKey()
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestInterfaceDiscriminators(t *testing.T) {
	assert.Equal(t, Discriminator{0xd2, 0xe1, 0x1e, 0xa2, 0x58, 0xb8, 0x4d, 0x8d}, InitializeMetadataDiscriminator)
	assert.Equal(t, Discriminator{0x79, 0x71, 0x6c, 0x27, 0x36, 0x33, 0x00, 0x04}, InitializeGroupDiscriminator)
	assert.Equal(t, Discriminator{0x98, 0x20, 0xde, 0xb0, 0xdf, 0xed, 0x74, 0x86}, InitializeMemberDiscriminator)
}

func TestInitializeMint2_Build(t *testing.T) {
	mint := newRandomKey(t)
	authority := newRandomKey(t)

	ix := (&InitializeMint2{Mint: mint, Decimals: 6, MintAuthority: authority, FreezeAuthority: &authority}).Build()
	assert.Equal(t, ProgramID, ix.ProgramId)
	assert.Equal(t, []sealevel.AccountMeta{{Pubkey: mint, IsWritable: true}}, ix.Accounts)
	assert.Equal(t, concat([]byte{20, 6}, authority[:], []byte{1}, authority[:]), ix.Data)

	ix = (&InitializeMint2{Mint: mint, MintAuthority: authority}).Build()
	assert.Equal(t, concat([]byte{20, 0}, authority[:], []byte{0}), ix.Data)
}

func TestInitializeMint2_RoundTripsThroughDecoder(t *testing.T) {
	authority := newRandomKey(t)
	freeze := newRandomKey(t)
	ix := (&InitializeMint2{Decimals: 9, MintAuthority: authority, FreezeAuthority: &freeze}).Build()

	var decoded InitializeMint2
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(ix.Data[1:])))
	assert.Equal(t, uint8(9), decoded.Decimals)
	assert.Equal(t, authority, decoded.MintAuthority)
	require.NotNil(t, decoded.FreezeAuthority)
	assert.Equal(t, freeze, *decoded.FreezeAuthority)
}

func TestPointerBuilders(t *testing.T) {
	mint := newRandomKey(t)
	authority := newRandomKey(t)

	for _, tc := range []struct {
		name string
		ix   sealevel.Instruction
		tag  byte
	}{
		{"metadata", (&InitializeMetadataPointer{Mint: mint, Authority: authority, MetadataAddress: mint}).Build(), 39},
		{"group", (&InitializeGroupPointer{Mint: mint, Authority: authority, GroupAddress: mint}).Build(), 40},
		{"member", (&InitializeGroupMemberPointer{Mint: mint, Authority: authority, MemberAddress: mint}).Build(), 41},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, ProgramID, tc.ix.ProgramId)
			assert.Equal(t, []sealevel.AccountMeta{{Pubkey: mint, IsWritable: true}}, tc.ix.Accounts)
			assert.Equal(t, concat([]byte{tc.tag, 0}, authority[:], mint[:]), tc.ix.Data)
		})
	}
}

func TestInitializeMetadata_Build(t *testing.T) {
	metadata := newRandomKey(t)
	updateAuthority := newRandomKey(t)
	mint := newRandomKey(t)
	mintAuthority := newRandomKey(t)

	ix := (&InitializeMetadata{
		Metadata:        metadata,
		UpdateAuthority: updateAuthority,
		Mint:            mint,
		MintAuthority:   mintAuthority,
		Name:            "test",
		Symbol:          "SRS",
		URI:             "test",
	}).Build()

	assert.Equal(t, []sealevel.AccountMeta{
		{Pubkey: metadata, IsWritable: true},
		{Pubkey: updateAuthority},
		{Pubkey: mint},
		{Pubkey: mintAuthority, IsSigner: true},
	}, ix.Accounts)

	demo := []byte{4, 0, 0, 0, 116, 101, 115, 116, 3, 0, 0, 0, 83, 82, 83, 4, 0, 0, 0, 116, 101, 115, 116}
	assert.Equal(t, concat(InitializeMetadataDiscriminator[:], demo), ix.Data)
}

func TestInitializeGroup_Build(t *testing.T) {
	group := newRandomKey(t)
	mint := newRandomKey(t)
	mintAuthority := newRandomKey(t)
	updateAuthority := newRandomKey(t)

	ix := (&InitializeGroup{Group: group, Mint: mint, MintAuthority: mintAuthority, UpdateAuthority: updateAuthority, MaxSize: 100}).Build()

	assert.Equal(t, []sealevel.AccountMeta{
		{Pubkey: group, IsWritable: true},
		{Pubkey: mint},
		{Pubkey: mintAuthority, IsSigner: true},
	}, ix.Accounts)
	assert.Equal(t, concat(InitializeGroupDiscriminator[:], updateAuthority[:], []byte{100, 0, 0, 0, 0, 0, 0, 0}), ix.Data)
}

func TestInitializeMember_Build(t *testing.T) {
	member := newRandomKey(t)
	group := newRandomKey(t)

	ix := (&InitializeMember{Member: member, MemberMint: member, MemberMintAuthority: member, Group: group, GroupUpdateAuthority: group}).Build()

	assert.Equal(t, []sealevel.AccountMeta{
		{Pubkey: member, IsWritable: true},
		{Pubkey: member},
		{Pubkey: member, IsSigner: true},
		{Pubkey: group, IsWritable: true},
		{Pubkey: group, IsSigner: true},
	}, ix.Accounts)
	assert.Equal(t, InitializeMemberDiscriminator[:], ix.Data)
}

func TestBuilders_InvokeReturnsCalleeErrorUnchanged(t *testing.T) {
	mint := newRandomKey(t)
	calleeErr := TokenErrAlreadyInUse

	var calls int
	inv := sealevel.InvokerFunc(func(ix sealevel.Instruction) error {
		calls++
		return calleeErr
	})

	builders := []Builder{
		&InitializeMint2{Mint: mint, MintAuthority: mint},
		&InitializeMetadataPointer{Mint: mint, Authority: mint, MetadataAddress: mint},
		&InitializeMetadata{Metadata: mint, UpdateAuthority: mint, Mint: mint, MintAuthority: mint},
		&InitializeGroupPointer{Mint: mint, Authority: mint, GroupAddress: mint},
		&InitializeGroup{Group: mint, Mint: mint, MintAuthority: mint, MaxSize: 1},
		&InitializeGroupMemberPointer{Mint: mint, Authority: mint, MemberAddress: mint},
		&InitializeMember{Member: mint, MemberMint: mint, MemberMintAuthority: mint, Group: mint, GroupUpdateAuthority: mint},
	}
	for _, b := range builders {
		assert.Same(t, calleeErr, b.Invoke(inv))
	}
	assert.Equal(t, len(builders), calls)
}

func TestBuilders_EncodeToTree(t *testing.T) {
	mint := newRandomKey(t)
	tree := treeout.New("Instructions")
	(&InitializeMint2{Mint: mint, MintAuthority: mint, FreezeAuthority: &mint}).EncodeToTree(tree)
	(&InitializeGroupPointer{Mint: mint, Authority: mint, GroupAddress: mint}).EncodeToTree(tree)

	out := tree.String()
	assert.Contains(t, out, "InitializeMint2")
	assert.Contains(t, out, "InitializeGroupPointer")
	assert.Contains(t, out, mint.String())
}
