package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/panyam/vmsim/core"
	"github.com/panyam/vmsim/loader"
	"github.com/panyam/vmsim/runtime"
)

var (
	runScheme    string
	runOptimize  bool
	scenarioPath string
)

var runCmd = &cobra.Command{
	Use:   "run [tracefile [pre|post [0|1]]]",
	Short: "Simulate one migration of a trace",
	Long: `Simulate one migration of the given access trace and print the
five-line metrics report.

The trace file has one record per line: <tag> <R|W> <hex-address>.

The positional form mirrors the classic driver:

  vmsim run trace.txt post 1

which is equivalent to:

  vmsim run trace.txt --scheme post --optimize

Alternatively a scenario YAML can describe the whole run:

  vmsim run --scenario experiments/kernel-build.yaml`,
	Args: cobra.RangeArgs(0, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracePath := ""
		schemeToken := runScheme
		optimize := runOptimize
		channel := flagChannel()

		if scenarioPath != "" {
			sc, err := loader.LoadScenario(scenarioPath)
			if err != nil {
				return err
			}
			tracePath = sc.Trace
			schemeToken = sc.Scheme
			optimize = sc.Optimize
			channel = &core.Channel{Speed: sc.Channel.Speed, Delay: sc.Channel.Delay}
			channel.Init()
		}

		if len(args) > 0 {
			tracePath = args[0]
		}
		if len(args) > 1 {
			schemeToken = args[1]
		}
		if len(args) > 2 {
			switch args[2] {
			case "0":
				optimize = false
			case "1":
				optimize = true
			default:
				return fmt.Errorf("unknown optimization flag %q (want 0 or 1)", args[2])
			}
		}
		if tracePath == "" {
			return fmt.Errorf("no trace file given (positional argument or --scenario)")
		}

		scheme, err := runtime.ParseScheme(schemeToken)
		if err != nil {
			return err
		}
		trace, err := loader.ParseTraceFile(tracePath)
		if err != nil {
			return err
		}

		sim := runtime.NewSimulator(trace.PageCount, trace.History, channel)
		metrics, err := sim.RunMigration(scheme, optimize)
		if err != nil {
			return err
		}
		return loader.WriteMetrics(os.Stdout, metrics)
	},
}

func init() {
	runCmd.Flags().StringVar(&runScheme, "scheme", "pre", "Migration scheme: pre or post")
	runCmd.Flags().BoolVar(&runOptimize, "optimize", false, "Enable the scheme's transfer-order optimization")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML describing the run")
	AddCommand(runCmd)
}
