package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.firedancer.io/extmint/cmd/extmint/encode"
	"go.firedancer.io/extmint/cmd/extmint/layout"
	"go.firedancer.io/extmint/cmd/extmint/simulate"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "extmint",
	Short: "Token-2022 extensible mint provisioner",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&simulate.Cmd,
		&layout.Cmd,
		&encode.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
