package program

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/treeout"
	"go.firedancer.io/extmint/pkg/rent"
	"go.firedancer.io/extmint/pkg/sealevel"
	"go.firedancer.io/extmint/pkg/system"
	"go.firedancer.io/extmint/pkg/token2022"
	"k8s.io/klog/v2"
)

// Invocation is one cross-program call issued by a flow.
type Invocation interface {
	Build() sealevel.Instruction
	Invoke(inv sealevel.Invoker) error
	EncodeToTree(parent treeout.Branches)
}

// Step produces its invocation once the rent parameters are known.
type Step struct {
	Name        string
	Instruction func(r rent.Rent) Invocation
}

// Flow is a fixed sequence of steps. There is no branching and no retry: the
// first failing step ends the flow and its error is returned as is.
type Flow struct {
	Name  string
	Steps []Step
}

func (f Flow) Run(env Env) error {
	r := env.GetRent()
	for idx, step := range f.Steps {
		klog.V(2).Infof("%s: step %d %s", f.Name, idx, step.Name)
		err := step.Instruction(r).Invoke(env)
		if err != nil {
			klog.V(2).Infof("%s: step %d %s failed: %s", f.Name, idx, step.Name, err)
			return err
		}
	}
	return nil
}

// Instructions returns the calls the flow issues, in order.
func (f Flow) Instructions(r rent.Rent) []Invocation {
	invocations := make([]Invocation, 0, len(f.Steps))
	for _, step := range f.Steps {
		invocations = append(invocations, step.Instruction(r))
	}
	return invocations
}

func (f Flow) EncodeToTree(parent treeout.Branches, r rent.Rent) {
	for _, invocation := range f.Instructions(r) {
		invocation.EncodeToTree(parent)
	}
}

func MetadataLayout() token2022.Layout {
	return token2022.NewLayout(
		[]token2022.ExtensionType{token2022.ExtensionTypeMetadataPointer},
		[]token2022.ExtensionType{token2022.ExtensionTypeTokenMetadata},
		DemoMetadataLen,
	)
}

func GroupLayout() token2022.Layout {
	return token2022.NewLayout(
		[]token2022.ExtensionType{token2022.ExtensionTypeGroupPointer},
		[]token2022.ExtensionType{token2022.ExtensionTypeTokenGroup},
		0,
	)
}

func MemberLayout() token2022.Layout {
	return token2022.NewLayout(
		[]token2022.ExtensionType{token2022.ExtensionTypeGroupMemberPointer},
		[]token2022.ExtensionType{token2022.ExtensionTypeTokenGroupMember},
		0,
	)
}

// provisioning issues its CreateAccount through system.Provision.
type provisioning struct {
	*system.CreateAccount
}

func (p provisioning) Invoke(inv sealevel.Invoker) error {
	return system.Provision(inv, p.From, p.To, p.Space, p.Lamports, p.Owner)
}

// createStep allocates only Space but funds the final length, since the
// token program appends the trailing extension without topping up.
func createStep(payer, target solana.PublicKey, l token2022.Layout) Step {
	return Step{
		Name: "CreateAccount",
		Instruction: func(r rent.Rent) Invocation {
			return provisioning{system.NewCreateAccount(payer, target, l.Space, l.Lamports(r), token2022.ProgramID)}
		},
	}
}

func fixed(name string, invocation Invocation) Step {
	return Step{Name: name, Instruction: func(rent.Rent) Invocation { return invocation }}
}

func initializeMint2Step(mint solana.PublicKey) Step {
	freezeAuthority := mint
	return fixed("InitializeMint2", &token2022.InitializeMint2{
		Mint:            mint,
		Decimals:        MintDecimals,
		MintAuthority:   mint,
		FreezeAuthority: &freezeAuthority,
	})
}

// MetadataFlow creates mint as a self-describing metadata mint.
func MetadataFlow(mint, payer solana.PublicKey) Flow {
	return Flow{
		Name: "metadata",
		Steps: []Step{
			createStep(payer, mint, MetadataLayout()),
			fixed("InitializeMetadataPointer", &token2022.InitializeMetadataPointer{
				Mint:            mint,
				Authority:       mint,
				MetadataAddress: mint,
			}),
			initializeMint2Step(mint),
			fixed("InitializeMetadata", &token2022.InitializeMetadata{
				Metadata:        mint,
				UpdateAuthority: mint,
				Mint:            mint,
				MintAuthority:   mint,
				Name:            DemoName,
				Symbol:          DemoSymbol,
				URI:             DemoURI,
			}),
		},
	}
}

// GroupFlow creates group as a mint that is its own token group.
func GroupFlow(group, payer solana.PublicKey) Flow {
	return Flow{
		Name: "group",
		Steps: []Step{
			createStep(payer, group, GroupLayout()),
			fixed("InitializeGroupPointer", &token2022.InitializeGroupPointer{
				Mint:         group,
				Authority:    group,
				GroupAddress: group,
			}),
			initializeMint2Step(group),
			fixed("InitializeGroup", &token2022.InitializeGroup{
				Group:           group,
				Mint:            group,
				MintAuthority:   group,
				UpdateAuthority: group,
				MaxSize:         GroupMaxSize,
			}),
		},
	}
}

// GroupMemberFlow runs GroupFlow for group, then creates member as a member
// of it. The group signs as its own update authority.
func GroupMemberFlow(member, group, payer solana.PublicKey) Flow {
	steps := append([]Step{}, GroupFlow(group, payer).Steps...)
	steps = append(steps,
		createStep(payer, member, MemberLayout()),
		fixed("InitializeGroupMemberPointer", &token2022.InitializeGroupMemberPointer{
			Mint:          member,
			Authority:     member,
			MemberAddress: member,
		}),
		initializeMint2Step(member),
		fixed("InitializeMember", &token2022.InitializeMember{
			Member:               member,
			MemberMint:           member,
			MemberMintAuthority:  member,
			Group:                group,
			GroupUpdateAuthority: group,
		}),
	)
	return Flow{Name: "group member", Steps: steps}
}
