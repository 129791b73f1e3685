package program

import (
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/rent"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/system"
	"go.firedancer.io/extmint/pkg/token2022"
)

// recordingEnv records every invocation and fails the one at failAt.
type recordingEnv struct {
	rent   rent.Rent
	calls  []sealevel.Instruction
	failAt int
	err    error
}

func newRecordingEnv() *recordingEnv {
	return &recordingEnv{rent: rent.Default(), failAt: -1}
}

func (env *recordingEnv) Invoke(ix sealevel.Instruction) error {
	env.calls = append(env.calls, ix)
	if len(env.calls)-1 == env.failAt {
		return env.err
	}
	return nil
}

func (env *recordingEnv) GetRent() rent.Rent {
	return env.rent
}

func (env *recordingEnv) programIds() []solana.PublicKey {
	ids := make([]solana.PublicKey, 0, len(env.calls))
	for _, ix := range env.calls {
		ids = append(ids, ix.ProgramId)
	}
	return ids
}

func newRandomKey(t *testing.T) solana.PublicKey {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return privKey.PublicKey()
}

func decodeCreateAccount(t *testing.T, ix sealevel.Instruction) system.InstrCreateAccount {
	require.Equal(t, system.ProgramID, ix.ProgramId)
	decoder := bin.NewBinDecoder(ix.Data)
	instrType, err := decoder.ReadUint32(bin.LE)
	require.NoError(t, err)
	require.Equal(t, uint32(system.InstrTypeCreateAccount), instrType)

	var create system.InstrCreateAccount
	require.NoError(t, create.UnmarshalWithDecoder(decoder))
	return create
}

func TestDemoMetadataLen(t *testing.T) {
	assert.Equal(t, DemoMetadataLen, len(token2022.EncodeMetadataFields(DemoName, DemoSymbol, DemoURI)))
	assert.NotEqual(t, uint64(DemoMetadataLen), uint64(token2022.TokenMetadataFixedLen))
}

func TestLayouts(t *testing.T) {
	r := rent.Default()

	metadata := MetadataLayout()
	assert.Equal(t, token2022.Layout{Space: 234, Trailing: 95}, metadata)
	assert.Equal(t, uint64(3_180_720), metadata.Lamports(r))

	group := GroupLayout()
	assert.Equal(t, token2022.Layout{Space: 234, Trailing: 84}, group)
	assert.Equal(t, uint64(3_104_160), group.Lamports(r))

	member := MemberLayout()
	assert.Equal(t, token2022.Layout{Space: 234, Trailing: 76}, member)
	assert.Equal(t, uint64(3_048_480), member.Lamports(r))
}

func TestProcessInstruction_Metadata(t *testing.T) {
	env := newRecordingEnv()
	mint, payer := newRandomKey(t), newRandomKey(t)

	ix := NewMetadataInstruction(mint, payer)
	require.NoError(t, ProcessInstruction(env, ix.Accounts, ix.Data))

	require.Len(t, env.calls, 4)
	assert.Equal(t, []solana.PublicKey{system.ProgramID, token2022.ProgramID, token2022.ProgramID, token2022.ProgramID}, env.programIds())

	create := decodeCreateAccount(t, env.calls[0])
	assert.Equal(t, uint64(234), create.Space)
	assert.Equal(t, uint64(3_180_720), create.Lamports)
	assert.Equal(t, token2022.ProgramID, create.Owner)
	assert.Equal(t, []sealevel.AccountMeta{sealevel.NewAccountMeta(payer, true), sealevel.NewAccountMeta(mint, true)}, env.calls[0].Accounts)

	pointer := env.calls[1]
	assert.Equal(t, []byte{token2022.InstrTypeMetadataPointerExtension, 0}, pointer.Data[:2])
	assert.Equal(t, mint.Bytes(), pointer.Data[2:34])
	assert.Equal(t, mint.Bytes(), pointer.Data[34:66])

	mint2 := env.calls[2]
	assert.Equal(t, byte(token2022.InstrTypeInitializeMint2), mint2.Data[0])
	assert.Equal(t, byte(MintDecimals), mint2.Data[1])

	metadata := env.calls[3]
	assert.Equal(t, token2022.InitializeMetadataDiscriminator[:], metadata.Data[:8])
	assert.Equal(t, token2022.EncodeMetadataFields("test", "SRS", "test"), metadata.Data[8:])
	assert.Equal(t, []sealevel.AccountMeta{
		sealevel.NewAccountMeta(mint, false),
		sealevel.NewReadonlyAccountMeta(mint, false),
		sealevel.NewReadonlyAccountMeta(mint, false),
		sealevel.NewReadonlyAccountMeta(mint, true),
	}, metadata.Accounts)
}

func TestProcessInstruction_Group(t *testing.T) {
	env := newRecordingEnv()
	mint, payer := newRandomKey(t), newRandomKey(t)

	ix := NewGroupInstruction(mint, payer)
	require.NoError(t, ProcessInstruction(env, ix.Accounts, ix.Data))
	require.Len(t, env.calls, 4)

	create := decodeCreateAccount(t, env.calls[0])
	assert.Equal(t, uint64(234), create.Space)
	assert.Equal(t, uint64(3_104_160), create.Lamports)

	assert.Equal(t, byte(token2022.InstrTypeGroupPointerExtension), env.calls[1].Data[0])
	assert.Equal(t, byte(token2022.InstrTypeInitializeMint2), env.calls[2].Data[0])

	group := env.calls[3]
	require.Equal(t, token2022.InitializeGroupDiscriminator[:], group.Data[:8])
	var decoded token2022.InitializeGroup
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(group.Data[8:])))
	assert.Equal(t, mint, decoded.UpdateAuthority)
	assert.Equal(t, uint64(100), decoded.MaxSize)
}

func TestProcessInstruction_GroupMember(t *testing.T) {
	env := newRecordingEnv()
	member, group, payer := newRandomKey(t), newRandomKey(t), newRandomKey(t)

	ix := NewGroupMemberInstruction(member, group, payer)
	require.NoError(t, ProcessInstruction(env, ix.Accounts, ix.Data))
	require.Len(t, env.calls, 8)

	groupCreate := decodeCreateAccount(t, env.calls[0])
	assert.Equal(t, uint64(3_104_160), groupCreate.Lamports)
	assert.Equal(t, group, env.calls[0].Accounts[1].Pubkey)
	assert.Equal(t, token2022.InitializeGroupDiscriminator[:], env.calls[3].Data[:8])

	memberCreate := decodeCreateAccount(t, env.calls[4])
	assert.Equal(t, uint64(234), memberCreate.Space)
	assert.Equal(t, uint64(3_048_480), memberCreate.Lamports)
	assert.Equal(t, member, env.calls[4].Accounts[1].Pubkey)

	assert.Equal(t, byte(token2022.InstrTypeGroupMemberPointerExtension), env.calls[5].Data[0])
	assert.Equal(t, member.Bytes(), env.calls[5].Data[34:66])
	assert.Equal(t, byte(token2022.InstrTypeInitializeMint2), env.calls[6].Data[0])

	initMember := env.calls[7]
	assert.Equal(t, token2022.InitializeMemberDiscriminator[:], initMember.Data)
	assert.Equal(t, []sealevel.AccountMeta{
		sealevel.NewAccountMeta(member, false),
		sealevel.NewReadonlyAccountMeta(member, false),
		sealevel.NewReadonlyAccountMeta(member, true),
		sealevel.NewAccountMeta(group, false),
		sealevel.NewReadonlyAccountMeta(group, true),
	}, initMember.Accounts)
}

func TestProcessInstruction_InvalidDiscriminator(t *testing.T) {
	accts := NewMetadataInstruction(newRandomKey(t), newRandomKey(t)).Accounts

	for _, data := range [][]byte{nil, {}, {0x00}, {0x04}, {0x09}, {0xff, 0x01}} {
		env := newRecordingEnv()
		err := ProcessInstruction(env, accts, data)
		assert.Same(t, ErrInvalidDiscriminator, err)
		assert.Empty(t, env.calls)
	}
}

func TestProcessInstruction_MissingAccounts(t *testing.T) {
	metadata := NewMetadataInstruction(newRandomKey(t), newRandomKey(t))
	member := NewGroupMemberInstruction(newRandomKey(t), newRandomKey(t), newRandomKey(t))

	for _, tc := range []struct {
		name  string
		accts []sealevel.AccountMeta
		data  []byte
	}{
		{"metadata with 2 accounts", metadata.Accounts[:2], []byte{InstrTypeMetadata}},
		{"metadata with none", nil, []byte{InstrTypeMetadata}},
		{"group with 3 accounts", metadata.Accounts[:3], []byte{InstrTypeGroup}},
		{"group member with 4 accounts", member.Accounts[:4], []byte{InstrTypeGroupMember}},
		{"metadata with 5 accounts", member.Accounts, []byte{InstrTypeMetadata}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newRecordingEnv()
			err := ProcessInstruction(env, tc.accts, tc.data)
			assert.Same(t, ErrMissingAccounts, err)
			assert.Empty(t, env.calls)
		})
	}
}

func TestProcessInstruction_AbortsOnCalleeFailure(t *testing.T) {
	calleeErr := errors.New("callee failed")

	for failAt := 0; failAt < 8; failAt++ {
		env := newRecordingEnv()
		env.failAt = failAt
		env.err = calleeErr

		ix := NewGroupMemberInstruction(newRandomKey(t), newRandomKey(t), newRandomKey(t))
		err := ProcessInstruction(env, ix.Accounts, ix.Data)
		assert.Same(t, calleeErr, err)
		assert.Len(t, env.calls, failAt+1)
	}
}

func TestProcessInstruction_PassesSentinelErrorsThrough(t *testing.T) {
	env := newRecordingEnv()
	env.failAt = 0
	env.err = system.SystemProgErrAccountAlreadyInUse

	ix := NewMetadataInstruction(newRandomKey(t), newRandomKey(t))
	err := ProcessInstruction(env, ix.Accounts, ix.Data)
	assert.Same(t, system.SystemProgErrAccountAlreadyInUse, err)
	assert.Len(t, env.calls, 1)
}

func TestFlow_InstructionsMatchRun(t *testing.T) {
	env := newRecordingEnv()
	flow := GroupMemberFlow(newRandomKey(t), newRandomKey(t), newRandomKey(t))
	require.NoError(t, flow.Run(env))

	invocations := flow.Instructions(env.GetRent())
	require.Len(t, invocations, len(env.calls))
	for idx, invocation := range invocations {
		assert.Equal(t, env.calls[idx], invocation.Build())
	}
}

func TestFlows_CreateThroughProvision(t *testing.T) {
	mint, group, payer := newRandomKey(t), newRandomKey(t), newRandomKey(t)
	r := rent.Default()

	for _, flow := range []Flow{MetadataFlow(mint, payer), GroupFlow(mint, payer), GroupMemberFlow(mint, group, payer)} {
		t.Run(flow.Name, func(t *testing.T) {
			for _, invocation := range flow.Instructions(r) {
				if invocation.Build().ProgramId != system.ProgramID {
					continue
				}
				create, ok := invocation.(provisioning)
				require.True(t, ok, "CreateAccount issued outside system.Provision")

				direct := newRecordingEnv()
				require.NoError(t, system.Provision(direct, create.From, create.To, create.Space, create.Lamports, create.Owner))
				env := newRecordingEnv()
				require.NoError(t, invocation.Invoke(env))
				assert.Equal(t, direct.calls, env.calls)
				assert.Equal(t, token2022.ProgramID, create.Owner)
			}
		})
	}
}
