package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/extmint/pkg/features"
	"go.firedancer.io/extmint/pkg/rent"
)

const testConfig = `
features:
  - StricterAbiAndRuntimeConstraints
payer_lamports: 5000000000
scenarios:
  - name: metadata
    flow: metadata
  - name: bad discriminator
    flow: metadata
    discriminator: 9
  - name: two accounts
    flow: metadata
    accounts: 2
  - flow: group-member
    replay: true
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(testConfig))
	require.NoError(t, err)

	assert.Equal(t, rent.Default(), cfg.Rent)
	assert.Equal(t, uint64(5_000_000_000), cfg.PayerLamports)
	require.Len(t, cfg.Scenarios, 4)
	assert.Equal(t, FlowMetadata, cfg.Scenarios[0].Flow)
	assert.Equal(t, uint8(9), *cfg.Scenarios[1].Discriminator)
	assert.Equal(t, 2, *cfg.Scenarios[2].Accounts)
	assert.True(t, cfg.Scenarios[3].Replay)
	assert.Equal(t, "group-member", cfg.Scenarios[3].String())

	f, err := cfg.FeatureSet()
	require.NoError(t, err)
	assert.True(t, f.IsActive(features.StricterAbiAndRuntimeConstraints))
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"unknown field", "payer: 1\n"},
		{"unknown feature", "features: [NoSuchGate]\n"},
		{"unknown flow", "scenarios:\n  - flow: burn\n"},
		{"negative accounts", "scenarios:\n  - flow: group\n    accounts: -1\n"},
		{"bad rent", "rent:\n  burn_percent: 200\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extmint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Scenarios, 4)

	out, err := cfg.Marshal()
	require.NoError(t, err)
	reparsed, err := ParseConfig(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, cfg, reparsed)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
