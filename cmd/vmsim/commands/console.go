package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/fatih/color"
	gfn "github.com/panyam/goutils/fn"
	"github.com/spf13/cobra"

	"github.com/panyam/vmsim/console"
	"github.com/panyam/vmsim/loader"
)

var consoleSession *console.Session

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive vmsim console",
	Long: `Start a REPL for exploring migration costs interactively.

Commands in the REPL:
  vmsim> load traces/kernel-build.txt
  vmsim> speed 25
  vmsim> delay 5
  vmsim> run post 1
  vmsim> compare
  vmsim> info`,
	RunE: func(cmd *cobra.Command, args []string) error {
		consoleSession = console.NewSession()
		if err := consoleSession.SetSpeed(channelSpeed); err != nil {
			return err
		}
		if err := consoleSession.SetDelay(channelDelay); err != nil {
			return err
		}

		fmt.Println("vmsim console - type 'help' for commands, 'exit' to leave")
		p := prompt.New(
			consoleExecutor,
			consoleCompleter,
			prompt.OptionTitle("vmsim console"),
			prompt.OptionPrefix("vmsim> "),
		)
		p.Run()
		return nil
	},
}

var consoleCommands = []prompt.Suggest{
	{Text: "load", Description: "Load a trace file: load <path>"},
	{Text: "speed", Description: "Set channel bandwidth in MB/s: speed <value>"},
	{Text: "delay", Description: "Set channel delay: delay <value>"},
	{Text: "run", Description: "Run one migration: run <pre|post> [0|1]"},
	{Text: "compare", Description: "Run all four scheme/optimization combinations"},
	{Text: "info", Description: "Show the loaded trace and channel parameters"},
	{Text: "help", Description: "List commands"},
	{Text: "exit", Description: "Leave the console"},
}

func consoleCompleter(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(consoleCommands, d.GetWordBeforeCursor(), true)
}

func consoleExecutor(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	if err := runConsoleCommand(fields[0], fields[1:]); err != nil {
		fmt.Println(color.RedString("error: %v", err))
	}
}

func runConsoleCommand(cmd string, args []string) error {
	switch cmd {
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <path>")
		}
		return consoleSession.Load(args[0])

	case "speed", "delay":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <value>", cmd)
		}
		val, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad value %q", args[0])
		}
		if cmd == "speed" {
			return consoleSession.SetSpeed(val)
		}
		return consoleSession.SetDelay(val)

	case "run":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: run <pre|post> [0|1]")
		}
		optimize := false
		if len(args) == 2 {
			switch args[1] {
			case "0":
			case "1":
				optimize = true
			default:
				return fmt.Errorf("unknown optimization flag %q (want 0 or 1)", args[1])
			}
		}
		metrics, err := consoleSession.Run(args[0], optimize)
		if err != nil {
			return err
		}
		fmt.Print(loader.FormatMetrics(metrics))
		return nil

	case "compare":
		results, err := consoleSession.Compare()
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s optimized=%v: total=%g downtime=%g delays=%g transmitted=%g\n",
				color.CyanString(r.Scheme), r.Optimize,
				r.Metrics.TotalMigrationTime, r.Metrics.Downtime,
				r.Metrics.Delays, r.Metrics.TransmittedData)
		}
		return nil

	case "info":
		path, pages, accesses := consoleSession.TraceInfo()
		if path == "" {
			fmt.Println("no trace loaded")
		} else {
			fmt.Printf("trace: %s (%d pages, %d accesses)\n", path, pages, accesses)
		}
		channel := consoleSession.Channel()
		fmt.Printf("channel: speed=%g MB/s delay=%g\n", channel.Speed, channel.Delay)
		return nil

	case "help":
		for _, line := range gfn.Map(consoleCommands, func(s prompt.Suggest) string {
			return fmt.Sprintf("  %-8s %s", s.Text, s.Description)
		}) {
			fmt.Println(line)
		}
		return nil

	case "exit", "quit":
		fmt.Println("bye")
		os.Exit(0)
		return nil
	}
	return fmt.Errorf("unknown command %q (try 'help')", cmd)
}

func init() {
	AddCommand(consoleCmd)
}
