package conformance

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/accounts"
	"go.firedancer.io/extmint/pkg/features"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/runtime"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/token2022"
)

// gates is the feature matrix every flow is run under.
var gates = []struct {
	name     string
	features []string
}{
	{"default", nil},
	{"stricter abi", []string{features.StricterAbiAndRuntimeConstraints.Name}},
}

func newBank(t *testing.T, featureNames []string) *runtime.Bank {
	cfg := runtime.DefaultConfig()
	cfg.Features = featureNames
	bank, err := runtime.NewBank(cfg)
	require.NoError(t, err)
	return bank
}

func newKey(t *testing.T) solana.PrivateKey {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

// flowKeys are the signers of one provisioning instruction.
type flowKeys struct {
	mint  solana.PrivateKey
	group solana.PrivateKey
}

func newFlowKeys(t *testing.T) flowKeys {
	return flowKeys{mint: newKey(t), group: newKey(t)}
}

func (k flowKeys) instruction(flow runtime.Flow, payer solana.PublicKey) sealevel.Instruction {
	switch flow {
	case runtime.FlowMetadata:
		return program.NewMetadataInstruction(k.mint.PublicKey(), payer)
	case runtime.FlowGroup:
		return program.NewGroupInstruction(k.mint.PublicKey(), payer)
	default:
		return program.NewGroupMemberInstruction(k.mint.PublicKey(), k.group.PublicKey(), payer)
	}
}

func processFlow(t *testing.T, bank *runtime.Bank, flow runtime.Flow, keys flowKeys) *runtime.TransactionResult {
	result, err := bank.Process([]sealevel.Instruction{keys.instruction(flow, bank.Payer.PublicKey())}, keys.mint, keys.group)
	require.NoError(t, err)
	return result
}

// registerProgram installs a native program that runs the flow built by
// newFlow from the instruction's account keys.
func registerProgram(t *testing.T, bank *runtime.Bank, newFlow func(keys []solana.PublicKey) program.Flow) solana.PublicKey {
	programId := newKey(t).PublicKey()
	require.NoError(t, bank.Programs.Register(programId, sealevel.NativeProgram{
		Name:         "flow-under-test",
		ComputeUnits: program.CUProvisionerDefaultComputeUnits,
		Execute: func(execCtx *sealevel.ExecutionCtx) error {
			txCtx, instrCtx, err := execCtx.CurrentInstruction()
			if err != nil {
				return err
			}
			metas, err := instrCtx.AccountMetas(txCtx)
			if err != nil {
				return err
			}
			keys := make([]solana.PublicKey, len(metas))
			for idx, meta := range metas {
				keys[idx] = meta.Pubkey
			}
			return newFlow(keys).Run(execCtx)
		},
	}))
	require.NoError(t, bank.SetAccount(accounts.Account{Key: programId, Lamports: 1, Owner: sealevel.NativeLoaderAddr, Executable: true}))
	return programId
}

func mintState(t *testing.T, bank *runtime.Bank, key solana.PublicKey) *token2022.MintAccount {
	acct := bank.GetAccount(key)
	require.NotNil(t, acct, "account %s", key)
	state, err := token2022.UnpackMintAccount(acct.Data)
	require.NoError(t, err)
	return state
}

// assertProvisioned checks owner, size and rent exemption of a provisioned
// mint against its layout.
func assertProvisioned(t *testing.T, bank *runtime.Bank, key solana.PublicKey, l token2022.Layout) {
	acct := bank.GetAccount(key)
	require.NotNil(t, acct, "account %s", key)
	assert.Equal(t, [32]byte(token2022.ProgramID), acct.Owner)
	assert.Equal(t, l.FinalLen(), uint64(len(acct.Data)))
	assert.GreaterOrEqual(t, acct.Lamports, bank.Rent.MinimumBalance(uint64(len(acct.Data))))
	assert.Equal(t, byte(token2022.AccountTypeMint), acct.Data[token2022.MintLen+83])
}

func assertSelfPointer(t *testing.T, state *token2022.MintAccount, ext token2022.ExtensionType, key solana.PublicKey) {
	pointer, err := state.Pointer(ext)
	require.NoError(t, err)
	assert.Equal(t, key, pointer.Address)
	assert.Equal(t, key, pointer.Authority)
}

func snapshot(bank *runtime.Bank, keys ...solana.PublicKey) []*accounts.Account {
	accts := make([]*accounts.Account, len(keys))
	for idx, key := range keys {
		accts[idx] = bank.GetAccount(key)
	}
	return accts
}
