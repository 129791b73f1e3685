package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/token2022"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

type Flow string

const (
	FlowMetadata    Flow = "metadata"
	FlowGroup       Flow = "group"
	FlowGroupMember Flow = "group-member"
)

var Flows = []Flow{FlowMetadata, FlowGroup, FlowGroupMember}

// Scenario is one provisioning instruction run against a fresh bank.
type Scenario struct {
	Name string `yaml:"name"`
	Flow Flow   `yaml:"flow"`
	// Discriminator replaces the instruction's leading byte.
	Discriminator *uint8 `yaml:"discriminator,omitempty"`
	// Accounts keeps only the first n account references.
	Accounts *int `yaml:"accounts,omitempty"`
	// Replay submits the instruction a second time after the first run.
	Replay bool `yaml:"replay,omitempty"`
	// Expect names the error the first run must fail with. Empty means it
	// must succeed.
	Expect string `yaml:"expect,omitempty"`
}

func (s Scenario) Validate() error {
	if !lo.Contains(Flows, s.Flow) {
		return fmt.Errorf("unknown flow %q", s.Flow)
	}
	if s.Accounts != nil && *s.Accounts < 0 {
		return fmt.Errorf("negative account count %d", *s.Accounts)
	}
	return nil
}

func (s Scenario) String() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Flow)
}

// AccountReport is the post-state of one account a scenario provisions.
type AccountReport struct {
	Role       string
	Key        solana.PublicKey
	Exists     bool
	Owner      solana.PublicKey
	Lamports   uint64
	DataLen    int
	RentExempt bool
	Extensions []token2022.ExtensionType
}

type Report struct {
	Scenario    Scenario
	Features    []string
	Instruction sealevel.Instruction
	Result      *TransactionResult
	Replay      *TransactionResult
	Accounts    []AccountReport
}

func (r *Report) Err() error {
	return r.Result.Err
}

// Check compares the outcome of the first run with Scenario.Expect.
func (r *Report) Check() error {
	err := r.Result.Err
	switch {
	case r.Scenario.Expect == "" && err != nil:
		return fmt.Errorf("%s: unexpected failure: %w", r.Scenario, err)
	case r.Scenario.Expect != "" && err == nil:
		return fmt.Errorf("%s: succeeded, expected %s", r.Scenario, r.Scenario.Expect)
	case r.Scenario.Expect != "" && !strings.Contains(err.Error(), r.Scenario.Expect):
		return fmt.Errorf("%s: failed with %q, expected %s", r.Scenario, err, r.Scenario.Expect)
	}
	return nil
}

type role struct {
	name string
	key  solana.PrivateKey
}

func (s Scenario) instruction(payer solana.PublicKey) (sealevel.Instruction, []role, error) {
	var ix sealevel.Instruction
	var roles []role

	newRole := func(name string) (solana.PrivateKey, error) {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, err
		}
		roles = append(roles, role{name: name, key: key})
		return key, nil
	}

	switch s.Flow {
	case FlowMetadata, FlowGroup:
		mint, err := newRole("mint")
		if err != nil {
			return ix, nil, err
		}
		if s.Flow == FlowMetadata {
			ix = program.NewMetadataInstruction(mint.PublicKey(), payer)
		} else {
			ix = program.NewGroupInstruction(mint.PublicKey(), payer)
		}
	case FlowGroupMember:
		member, err := newRole("member")
		if err != nil {
			return ix, nil, err
		}
		group, err := newRole("group")
		if err != nil {
			return ix, nil, err
		}
		ix = program.NewGroupMemberInstruction(member.PublicKey(), group.PublicKey(), payer)
	default:
		return ix, nil, fmt.Errorf("unknown flow %q", s.Flow)
	}

	if s.Discriminator != nil {
		ix.Data = []byte{*s.Discriminator}
	}
	if s.Accounts != nil && *s.Accounts < len(ix.Accounts) {
		ix.Accounts = ix.Accounts[:*s.Accounts]
	}
	return ix, roles, nil
}

// RunScenario runs s against a new bank built from cfg.
func RunScenario(cfg Config, s Scenario) (*Report, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}
	bank, err := NewBank(cfg)
	if err != nil {
		return nil, err
	}

	ix, roles, err := s.instruction(bank.Payer.PublicKey())
	if err != nil {
		return nil, err
	}
	signers := lo.Map(roles, func(r role, _ int) solana.PrivateKey { return r.key })

	report := &Report{Scenario: s, Features: bank.Features.AllEnabled(), Instruction: ix}
	report.Result, err = bank.Process([]sealevel.Instruction{ix}, signers...)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("%s: %v", s, report.Result.Err)

	if s.Replay {
		report.Replay, err = bank.Process([]sealevel.Instruction{ix}, signers...)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("%s replay: %v", s, report.Replay.Err)
	}

	for _, r := range roles {
		report.Accounts = append(report.Accounts, bank.accountReport(r.name, r.key.PublicKey()))
	}
	report.Accounts = append(report.Accounts, bank.accountReport("payer", bank.Payer.PublicKey()))
	return report, nil
}

func (b *Bank) accountReport(name string, key solana.PublicKey) AccountReport {
	ar := AccountReport{Role: name, Key: key}
	acct := b.GetAccount(key)
	if acct == nil {
		return ar
	}
	ar.Exists = true
	ar.Owner = acct.Owner
	ar.Lamports = acct.Lamports
	ar.DataLen = len(acct.Data)
	ar.RentExempt = b.Rent.IsExempt(acct.Lamports, uint64(len(acct.Data)))
	if ar.Owner == token2022.ProgramID {
		state, err := token2022.UnpackMintAccount(acct.Data)
		if err == nil {
			ar.Extensions = state.ExtensionTypes()
		}
	}
	return ar
}

// RunScenarios runs every scenario in cfg, each against its own bank, with
// at most parallelism running at once. Reports are in scenario order.
func RunScenarios(ctx context.Context, cfg Config, parallelism int) ([]*Report, error) {
	reports := make([]*Report, len(cfg.Scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for idx, s := range cfg.Scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := RunScenario(cfg, s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s, err)
			}
			reports[idx] = report
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return reports, nil
}
