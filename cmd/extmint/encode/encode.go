package encode

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/treeout"
	"github.com/spf13/cobra"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/rent"
)

var Cmd = cobra.Command{
	Use:   "encode <metadata|group|group-member>",
	Short: "Print the cross-program calls a flow issues",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

var (
	mintAddr  string
	groupAddr string
	payerAddr string
)

func init() {
	Cmd.Flags().StringVar(&mintAddr, "mint", "", "Mint (or member mint) address, random if unset")
	Cmd.Flags().StringVar(&groupAddr, "group", "", "Group address for group-member, random if unset")
	Cmd.Flags().StringVar(&payerAddr, "payer", "", "Payer address, random if unset")
}

func addressOrRandom(s string) (solana.PublicKey, error) {
	if s != "" {
		return solana.PublicKeyFromBase58(s)
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}

func run(c *cobra.Command, args []string) error {
	var keys [3]solana.PublicKey
	for idx, s := range []string{mintAddr, groupAddr, payerAddr} {
		key, err := addressOrRandom(s)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", s, err)
		}
		keys[idx] = key
	}
	mint, group, payer := keys[0], keys[1], keys[2]

	var flow program.Flow
	switch args[0] {
	case "metadata":
		flow = program.MetadataFlow(mint, payer)
	case "group":
		flow = program.GroupFlow(mint, payer)
	case "group-member":
		flow = program.GroupMemberFlow(mint, group, payer)
	default:
		return fmt.Errorf("unknown flow %q", args[0])
	}

	tree := treeout.New(fmt.Sprintf("%s flow (%d calls)", flow.Name, len(flow.Steps)))
	flow.EncodeToTree(tree, rent.Default())
	fmt.Fprint(c.OutOrStdout(), tree.String())
	return nil
}
