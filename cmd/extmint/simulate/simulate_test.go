package simulate

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/runtime"
	"go.firedancer.io/extmint/pkg/sealevel"
)

func TestSimulate(t *testing.T) {
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"--flow", "metadata,group-member", "--replay", "--feature", "StricterAbiAndRuntimeConstraints", "--metrics", "--trace"})
	require.NoError(t, Cmd.ExecuteContext(context.Background()))

	s := out.String()
	assert.Contains(t, s, "metadata: ok")
	assert.Contains(t, s, "group-member: ok")
	assert.Contains(t, s, "replay: failed: instruction 0 failed: SystemProgErrAccountAlreadyInUse (custom)")
	assert.Contains(t, s, "    extmint\n      system\n      token-2022\n")
	assert.Contains(t, s, "StricterAbiAndRuntimeConstraints")
	assert.Contains(t, s, "extensions [MetadataPointer TokenMetadata]")
	assert.Contains(t, s, "extmint_native_invocations_total")
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "ok", resultString(&runtime.TransactionResult{}))

	err := &sealevel.TransactionError{InstructionIndex: 0, Err: sealevel.InstrErrNotEnoughAccountKeys}
	assert.Equal(t,
		fmt.Sprintf("failed: instruction 0 failed: InstrErrNotEnoughAccountKeys (code %d)", sealevel.InstrErrCodeNotEnoughAccountKeys),
		resultString(&runtime.TransactionResult{Err: err}))
}
