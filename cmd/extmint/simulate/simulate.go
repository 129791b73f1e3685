package simulate

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/segmentio/textio"
	"github.com/spf13/cobra"
	"go.firedancer.io/extmint/pkg/base58"
	"go.firedancer.io/extmint/pkg/runtime"
	"go.firedancer.io/extmint/pkg/sealevel"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "simulate",
	Short: "Run provisioning scenarios against an in-memory bank",
	Long: "Runs each scenario against its own bank holding the system program, " +
		"the Token-2022 emulator and the provisioner. Without a config file, " +
		"every flow is run once.",
	Args: cobra.NoArgs,
	RunE: run,
}

var (
	configPath  string
	featureList []string
	flows       []string
	replay      bool
	parallelism int
	showLogs    bool
	showTrace   bool
	showMetrics bool
)

func init() {
	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML bank and scenario config")
	Cmd.Flags().StringSliceVarP(&featureList, "feature", "f", nil, "Feature gate to activate, by name or address (repeatable)")
	Cmd.Flags().StringSliceVar(&flows, "flow", nil, "Flows to run when the config has no scenarios (metadata, group, group-member)")
	Cmd.Flags().BoolVar(&replay, "replay", false, "Submit each flow-generated scenario twice")
	Cmd.Flags().IntVarP(&parallelism, "parallel", "p", 4, "Scenarios to run at once")
	Cmd.Flags().BoolVar(&showLogs, "logs", false, "Print program logs")
	Cmd.Flags().BoolVar(&showTrace, "trace", false, "Print the invoked programs by call depth")
	Cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Dump runtime metrics after the run")
}

func loadConfig() (runtime.Config, error) {
	cfg := runtime.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = runtime.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}
	cfg.Features = append(cfg.Features, featureList...)

	if len(cfg.Scenarios) == 0 {
		selected := runtime.Flows
		if len(flows) > 0 {
			selected = nil
			for _, f := range flows {
				selected = append(selected, runtime.Flow(f))
			}
		}
		for _, f := range selected {
			cfg.Scenarios = append(cfg.Scenarios, runtime.Scenario{Flow: f, Replay: replay})
		}
	}
	return cfg, cfg.Validate()
}

func run(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	klog.Infof("running %d scenarios", len(cfg.Scenarios))
	reports, err := runtime.RunScenarios(c.Context(), cfg, parallelism)
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	var unexpected []error
	for _, report := range reports {
		writeReport(out, report)
		err = report.Check()
		if err != nil {
			unexpected = append(unexpected, err)
		}
	}

	if showMetrics {
		err = writeMetrics(out)
		if err != nil {
			return err
		}
	}

	klog.Infof("%d scenarios, %d unexpected outcomes", len(reports), len(unexpected))
	return errors.Join(unexpected...)
}

func resultString(result *runtime.TransactionResult) string {
	switch {
	case result.Err == nil:
		return "ok"
	case sealevel.IsInstructionError(result.Err):
		return fmt.Sprintf("failed: %s (code %d)", result.Err, sealevel.TranslateErrToInstrErrCode(result.Err))
	default:
		return fmt.Sprintf("failed: %s (custom)", result.Err)
	}
}

func writeReport(w io.Writer, report *runtime.Report) {
	fmt.Fprintf(w, "%s: %s\n", report.Scenario, resultString(report.Result))

	pw := textio.NewPrefixWriter(w, "    ")
	defer pw.Flush()

	for _, f := range report.Features {
		fmt.Fprintln(pw, f)
	}
	fmt.Fprintf(pw, "slot %d, %d compute units, bank hash %s\n",
		report.Result.Slot, report.Result.ComputeUnits, base58.Encode(report.Result.BankHash))
	if report.Replay != nil {
		fmt.Fprintf(pw, "replay: %s\n", resultString(report.Replay))
	}

	for _, acct := range report.Accounts {
		if !acct.Exists {
			fmt.Fprintf(pw, "%-7s %s: does not exist\n", acct.Role, acct.Key)
			continue
		}
		fmt.Fprintf(pw, "%-7s %s: owner %s, %d bytes, %d lamports, rent exempt %t\n",
			acct.Role, acct.Key, acct.Owner, acct.DataLen, acct.Lamports, acct.RentExempt)
		if len(acct.Extensions) > 0 {
			fmt.Fprintf(pw, "        extensions %v\n", acct.Extensions)
		}
	}

	if showTrace {
		for _, entry := range report.Result.Trace {
			fmt.Fprintf(pw, "%s%s\n", strings.Repeat("  ", int(entry.StackHeight-1)), entry.Program)
		}
	}

	if showLogs {
		logs := textio.NewPrefixWriter(pw, "| ")
		for _, line := range report.Result.Logs {
			fmt.Fprintln(logs, line)
		}
		_ = logs.Flush()
	}
}

func writeMetrics(w io.Writer) error {
	mfs, err := sealevel.Metrics.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range mfs {
		err = enc.Encode(mf)
		if err != nil {
			return err
		}
	}
	return nil
}
