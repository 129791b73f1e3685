package layout

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.firedancer.io/extmint/pkg/program"
	"go.firedancer.io/extmint/pkg/rent"
	"go.firedancer.io/extmint/pkg/token2022"
)

var Cmd = cobra.Command{
	Use:   "layout",
	Short: "Print account sizes and rent for each flow",
	Args:  cobra.NoArgs,
	Run:   run,
}

var lamportsPerByteYear uint64

func init() {
	Cmd.Flags().Uint64Var(&lamportsPerByteYear, "lamports-per-byte-year", rent.DefaultLamportsPerByteYear, "Rent rate")
}

func run(c *cobra.Command, _ []string) {
	r := rent.Default()
	r.LamportsPerUint8Year = lamportsPerByteYear

	out := c.OutOrStdout()
	fmt.Fprintf(out, "%-8s %6s %9s %6s %12s\n", "account", "space", "trailing", "final", "lamports")
	for _, row := range []struct {
		name   string
		layout token2022.Layout
	}{
		{"metadata", program.MetadataLayout()},
		{"group", program.GroupLayout()},
		{"member", program.MemberLayout()},
	} {
		fmt.Fprintf(out, "%-8s %6d %9d %6d %12d\n",
			row.name, row.layout.Space, row.layout.Trailing, row.layout.FinalLen(), row.layout.Lamports(r))
	}
}
