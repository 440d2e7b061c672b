package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panyam/vmsim/console"
)

var compareCmd = &cobra.Command{
	Use:   "compare <tracefile>",
	Short: "Run every scheme/optimization combination side by side",
	Long: `Run pre-copy and post-copy, each with and without optimization, on
the same trace and channel, and print the metrics as one table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := console.NewSession()
		channel := flagChannel()
		if err := sess.SetSpeed(channel.Speed); err != nil {
			return err
		}
		if err := sess.SetDelay(channel.Delay); err != nil {
			return err
		}
		if err := sess.Load(args[0]); err != nil {
			return err
		}
		results, err := sess.Compare()
		if err != nil {
			return err
		}

		// Escape codes confuse tabwriter's column widths, so color only
		// the title line and keep the table plain.
		title := color.New(color.Bold, color.FgCyan).SprintFunc()
		fmt.Println(title("migration comparison:"), args[0])

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "scheme\toptimized\tdowntime\ttotal time\ttransmitted KB\tdelays")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%v\t%g\t%g\t%g\t%g\n",
				r.Scheme, r.Optimize,
				r.Metrics.Downtime, r.Metrics.TotalMigrationTime,
				r.Metrics.TransmittedData, r.Metrics.Delays)
		}
		return w.Flush()
	},
}

func init() {
	AddCommand(compareCmd)
}
