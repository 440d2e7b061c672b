package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/panyam/vmsim/core"
)

// Global flags shared by the subcommands.
var (
	channelSpeed  float64
	channelDelay  float64
	serverAddress string
)

var rootCmd = &cobra.Command{
	Use:   "vmsim",
	Short: "vmsim simulates the cost of VM live-migration strategies",
	Long: `vmsim replays a guest memory-access trace against a bandwidth- and
latency-constrained channel and reports aggregate migration metrics
(downtime, total migration time, cumulative page-fault delay, and
transmitted data) for pre-copy and post-copy live migration, each with
an optional transfer-order optimization.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Float64Var(&channelSpeed, "speed", 10, "Channel bandwidth in MB/s")
	rootCmd.PersistentFlags().Float64Var(&channelDelay, "delay", 10, "Channel per-transfer delay")
	rootCmd.PersistentFlags().StringVar(&serverAddress, "addr", DefaultServerAddress(), "Host/port for the API server (default: VMSIM_SERVER_ADDRESS env var or :8080)")
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

func DefaultServerAddress() string {
	if addr := os.Getenv("VMSIM_SERVER_ADDRESS"); addr != "" {
		return addr
	}
	return ":8080"
}

// flagChannel builds a Channel from the global flags.
func flagChannel() *core.Channel {
	c := &core.Channel{Speed: channelSpeed, Delay: channelDelay}
	c.Init()
	return c
}
