package encode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"group-member", "--mint", "srsUi2TVUUCyGcZdopxJauk8ZBzgAaHHZCVUhm5ifPa"})
	require.NoError(t, Cmd.Execute())

	s := out.String()
	assert.Contains(t, s, "group member flow (8 calls)")
	assert.Contains(t, s, "InitializeGroupMemberPointer")
	assert.Contains(t, s, "srsUi2TVUUCyGcZdopxJauk8ZBzgAaHHZCVUhm5ifPa")

	Cmd.SetArgs([]string{"burn"})
	assert.Error(t, Cmd.Execute())
}
