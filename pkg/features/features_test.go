package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatures_Enable(t *testing.T) {
	f := NewFeaturesDefault()
	assert.False(t, f.IsActive(StricterAbiAndRuntimeConstraints))
	f.EnableFeature(StricterAbiAndRuntimeConstraints, 0)
	assert.True(t, f.IsActive(StricterAbiAndRuntimeConstraints))
	f.EnableFeature(StricterAbiAndRuntimeConstraints, 10)
	assert.True(t, f.IsActive(StricterAbiAndRuntimeConstraints))
}

func TestFeatures_ListEnabled(t *testing.T) {
	f := NewFeaturesDefault()
	assert.Empty(t, f.AllEnabled())
	f.EnableFeature(StricterAbiAndRuntimeConstraints, 0)
	assert.Equal(t, f.AllEnabled(), []string{"feature StricterAbiAndRuntimeConstraints (CxeBn9PVeeXbmjbNwLv6U4C6svNxnC4JX6mfkvgeMocM) enabled"})
}

func TestFeatures_ZeroValue(t *testing.T) {
	var f Features
	assert.False(t, f.IsActive(StricterAbiAndRuntimeConstraints))
	f.EnableFeature(StricterAbiAndRuntimeConstraints, 5)
	assert.True(t, f.IsActive(StricterAbiAndRuntimeConstraints))
}

func TestGateByName(t *testing.T) {
	gate, err := GateByName("StricterAbiAndRuntimeConstraints")
	require.NoError(t, err)
	assert.Equal(t, StricterAbiAndRuntimeConstraints, gate)

	gate, err = GateByName("CxeBn9PVeeXbmjbNwLv6U4C6svNxnC4JX6mfkvgeMocM")
	require.NoError(t, err)
	assert.Equal(t, StricterAbiAndRuntimeConstraints, gate)

	_, err = GateByName("NoSuchGate")
	assert.Error(t, err)
}
