package features

import (
	"fmt"
	"sort"

	"go.firedancer.io/extmint/pkg/base58"
)

type Features struct {
	enabledFeatures map[[32]byte]uint64
}

func NewFeaturesDefault() *Features {
	return &Features{enabledFeatures: make(map[[32]byte]uint64)}
}

func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	if f.enabledFeatures == nil {
		f.enabledFeatures = make(map[[32]byte]uint64)
	}
	f.enabledFeatures[gate.Address] = slot
}

func (f *Features) IsActive(gate FeatureGate) bool {
	_, ok := f.enabledFeatures[gate.Address]
	return ok
}

func (f *Features) AllEnabled() []string {
	var enabled []string
	for _, gate := range AllFeatureGates {
		if f.IsActive(gate) {
			enabled = append(enabled, fmt.Sprintf("feature %s (%s) enabled", gate.Name, base58.Encode(gate.Address)))
		}
	}
	sort.Strings(enabled)
	return enabled
}

// GateByName resolves a gate from its name or its base58 address.
func GateByName(name string) (FeatureGate, error) {
	for _, gate := range AllFeatureGates {
		if gate.Name == name || base58.Encode(gate.Address) == name {
			return gate, nil
		}
	}
	return FeatureGate{}, fmt.Errorf("unknown feature gate %q", name)
}
