package program

import (
	"go.firedancer.io/extmint/pkg/sealevel"
	"k8s.io/klog/v2"
)

// ProcessInstruction selects a flow from the first byte of data and runs it.
// The account list is checked before any call is issued. Errors returned by
// the callees are passed through unchanged.
func ProcessInstruction(env Env, accts []sealevel.AccountMeta, data []byte) error {
	flow, err := FlowFor(accts, data)
	if err != nil {
		return err
	}
	return flow.Run(env)
}

// FlowFor returns the flow selected by data for the given accounts.
//
//	0x01  mint, payer, token program, system program
//	0x02  mint, payer, token program, system program
//	0x03  member mint, group, payer, token program, system program
func FlowFor(accts []sealevel.AccountMeta, data []byte) (Flow, error) {
	if len(data) == 0 {
		return Flow{}, ErrInvalidDiscriminator
	}

	switch data[0] {
	case InstrTypeMetadata:
		if len(accts) != 4 {
			klog.V(2).Infof("metadata flow: got %d accounts, want 4", len(accts))
			return Flow{}, ErrMissingAccounts
		}
		return MetadataFlow(accts[0].Pubkey, accts[1].Pubkey), nil

	case InstrTypeGroup:
		if len(accts) != 4 {
			klog.V(2).Infof("group flow: got %d accounts, want 4", len(accts))
			return Flow{}, ErrMissingAccounts
		}
		return GroupFlow(accts[0].Pubkey, accts[1].Pubkey), nil

	case InstrTypeGroupMember:
		if len(accts) != 5 {
			klog.V(2).Infof("group member flow: got %d accounts, want 5", len(accts))
			return Flow{}, ErrMissingAccounts
		}
		return GroupMemberFlow(accts[0].Pubkey, accts[1].Pubkey, accts[2].Pubkey), nil

	default:
		return Flow{}, ErrInvalidDiscriminator
	}
}
