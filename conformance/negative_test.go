package conformance

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/rent"
	"go.firedancer.io/extmint/pkg/runtime"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/system"
	"go.firedancer.io/extmint/pkg/token2022"
)

func TestReplay_RejectedWithoutMutation(t *testing.T) {
	for _, flow := range runtime.Flows {
		t.Run(string(flow), func(t *testing.T) {
			bank := newBank(t, nil)
			keys := newFlowKeys(t)
			require.NoError(t, processFlow(t, bank, flow, keys).Err)

			watched := []solana.PublicKey{keys.mint.PublicKey(), keys.group.PublicKey(), bank.Payer.PublicKey()}
			before := snapshot(bank, watched...)

			result := processFlow(t, bank, flow, keys)
			assert.ErrorIs(t, result.Err, system.SystemProgErrAccountAlreadyInUse)
			assert.Empty(t, result.Modified)
			assert.Equal(t, before, snapshot(bank, watched...))
		})
	}
}

func TestDispatch_RejectsMalformedInstructions(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(ix *sealevel.Instruction)
		err    error
	}{
		{"unknown discriminator", func(ix *sealevel.Instruction) { ix.Data = []byte{0x09} }, program.ErrInvalidDiscriminator},
		{"empty data", func(ix *sealevel.Instruction) { ix.Data = nil }, program.ErrInvalidDiscriminator},
		{"two accounts", func(ix *sealevel.Instruction) { ix.Accounts = ix.Accounts[:2] }, program.ErrMissingAccounts},
		{"extra account", func(ix *sealevel.Instruction) {
			ix.Accounts = append(ix.Accounts, sealevel.AccountMeta{Pubkey: solana.SysVarRentPubkey})
		}, program.ErrMissingAccounts},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bank := newBank(t, nil)
			keys := newFlowKeys(t)
			payer := bank.Payer.PublicKey()
			before := snapshot(bank, payer)

			ix := keys.instruction(runtime.FlowMetadata, payer)
			tc.mutate(&ix)
			result, err := bank.Process([]sealevel.Instruction{ix}, keys.mint)
			require.NoError(t, err)

			assert.ErrorIs(t, result.Err, tc.err)
			assert.Nil(t, bank.GetAccount(keys.mint.PublicKey()))
			assert.Equal(t, before, snapshot(bank, payer))
		})
	}
}

func TestFlows_InitializeMintBeforePointerRejected(t *testing.T) {
	swap := func(flow program.Flow, pointer int) program.Flow {
		flow.Steps[pointer], flow.Steps[pointer+1] = flow.Steps[pointer+1], flow.Steps[pointer]
		return flow
	}

	for _, tc := range []struct {
		name    string
		flow    runtime.Flow
		newFlow func(keys []solana.PublicKey) program.Flow
	}{
		{"metadata", runtime.FlowMetadata, func(keys []solana.PublicKey) program.Flow {
			return swap(program.MetadataFlow(keys[0], keys[1]), 1)
		}},
		{"group", runtime.FlowGroup, func(keys []solana.PublicKey) program.Flow {
			return swap(program.GroupFlow(keys[0], keys[1]), 1)
		}},
		{"group member, member half", runtime.FlowGroupMember, func(keys []solana.PublicKey) program.Flow {
			return swap(program.GroupMemberFlow(keys[0], keys[1], keys[2]), 5)
		}},
	} {
		for _, gate := range gates {
			t.Run(tc.name+"/"+gate.name, func(t *testing.T) {
				bank := newBank(t, gate.features)
				programId := registerProgram(t, bank, tc.newFlow)

				keys := newFlowKeys(t)
				ix := keys.instruction(tc.flow, bank.Payer.PublicKey())
				ix.ProgramId = programId
				result, err := bank.Process([]sealevel.Instruction{ix}, keys.mint, keys.group)
				require.NoError(t, err)

				assert.ErrorIs(t, result.Err, sealevel.InstrErrInvalidAccountData)
				assert.Nil(t, bank.GetAccount(keys.mint.PublicKey()))
				assert.Nil(t, bank.GetAccount(keys.group.PublicKey()))
			})
		}
	}
}

func TestFlow_FundingOnlySpaceRejected(t *testing.T) {
	for _, gate := range gates {
		t.Run(gate.name, func(t *testing.T) {
			bank := newBank(t, gate.features)
			programId := registerProgram(t, bank, func(keys []solana.PublicKey) program.Flow {
				mint, payer := keys[0], keys[1]
				flow := program.MetadataFlow(mint, payer)
				space := program.MetadataLayout().Space
				flow.Steps[0].Instruction = func(r rent.Rent) program.Invocation {
					return system.NewCreateAccount(payer, mint, space, r.MinimumBalance(space), token2022.ProgramID)
				}
				return flow
			})

			keys := newFlowKeys(t)
			ix := keys.instruction(runtime.FlowMetadata, bank.Payer.PublicKey())
			ix.ProgramId = programId
			result, err := bank.Process([]sealevel.Instruction{ix}, keys.mint)
			require.NoError(t, err)

			assert.ErrorIs(t, result.Err, rent.ErrInsufficientFundsForRent)
			assert.Nil(t, bank.GetAccount(keys.mint.PublicKey()))
		})
	}
}

func TestGroupMemberFlow_ExistingGroupRejected(t *testing.T) {
	bank := newBank(t, nil)
	keys := newFlowKeys(t)
	group := flowKeys{mint: keys.group, group: newKey(t)}
	require.NoError(t, processFlow(t, bank, runtime.FlowGroup, group).Err)

	result := processFlow(t, bank, runtime.FlowGroupMember, keys)
	assert.ErrorIs(t, result.Err, system.SystemProgErrAccountAlreadyInUse)
	assert.Nil(t, bank.GetAccount(keys.mint.PublicKey()))
}
