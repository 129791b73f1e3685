// Package program implements the extensible-mint provisioning program.
//
// Each instruction creates one or two Token-2022 mints and initializes an
// extension set on them through cross-program invocations, in the order the
// token program requires: pointer extension, then the base mint, then the
// extension record the pointer refers to.
package program

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/extmint/pkg/rent"
	"go.firedancer.io/extmint/pkg/sealevel"
)

const ProgramName = "Extensible Mint Provisioner"

var ProgramID = solana.MustPublicKeyFromBase58("srsUi2TVUUCyGcZdopxJauk8ZBzgAaHHZCVUhm5ifPa")

const CUProvisionerDefaultComputeUnits = 1500

// Instruction discriminators, the first byte of the instruction data.
const (
	InstrTypeMetadata    = 0x01
	InstrTypeGroup       = 0x02
	InstrTypeGroupMember = 0x03
)

var (
	// ErrMissingAccounts is returned when the account list does not match
	// the selected flow.
	ErrMissingAccounts = sealevel.InstrErrNotEnoughAccountKeys
	// ErrInvalidDiscriminator is returned for empty instruction data or an
	// unknown leading byte.
	ErrInvalidDiscriminator = sealevel.InstrErrInvalidInstructionData
)

// Demonstration metadata written by the metadata flow.
const (
	DemoName   = "test"
	DemoSymbol = "SRS"
	DemoURI    = "test"

	// DemoMetadataLen is the borsh length of the demo name, symbol and uri.
	// It is funded on top of token2022.TokenMetadataFixedLen; the two are
	// separate quantities.
	DemoMetadataLen = 23
)

const (
	MintDecimals = 0
	GroupMaxSize = 100
)

// Env is what a flow needs from the hosting runtime.
// *sealevel.ExecutionCtx satisfies it.
type Env interface {
	sealevel.Invoker
	GetRent() rent.Rent
}

var Program = sealevel.NativeProgram{
	Name:         "extmint",
	ComputeUnits: CUProvisionerDefaultComputeUnits,
	Execute:      Execute,
}

// Execute runs the program as a native program inside the runtime.
func Execute(execCtx *sealevel.ExecutionCtx) error {
	txCtx, instrCtx, err := execCtx.CurrentInstruction()
	if err != nil {
		return err
	}
	accts, err := instrCtx.AccountMetas(txCtx)
	if err != nil {
		return err
	}
	return ProcessInstruction(execCtx, accts, instrCtx.Data)
}
