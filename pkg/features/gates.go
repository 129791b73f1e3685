package features

import (
	"go.firedancer.io/extmint/pkg/base58"
)

type FeatureGate struct {
	Name    string
	Address [32]byte
}

// StricterAbiAndRuntimeConstraints switches CPI account handling to the
// direct-mapped ABI, which bounds how far a callee may grow an account.
var StricterAbiAndRuntimeConstraints = FeatureGate{Name: "StricterAbiAndRuntimeConstraints", Address: base58.MustDecodeFromString("CxeBn9PVeeXbmjbNwLv6U4C6svNxnC4JX6mfkvgeMocM")}

var AllFeatureGates = []FeatureGate{StricterAbiAndRuntimeConstraints}
