// Command `afd` loads a deterministic finite automaton over {0,1} from a
// section-based configuration file and reports which input strings it
// accepts.
//
// Usage:
//
//	afd run                         - Print Conf.txt's automaton and evaluate Cadenas.txt
//	afd check [--all]               - Validate the configuration only
//	afd show                        - Print the loaded automaton
//	afd load <name> <file> [<ttl>]  - Load an automaton into the afdd daemon
//	afd eval <name|id> <file>       - Evaluate strings on the daemon
//	afd list                        - List automata loaded in the daemon
//	afd unload <name|id>            - Remove an automaton from the daemon
//	afd status                      - Show daemon status
//
// Examples:
//
//	afd run --config odd.txt --strings inputs.txt
//	afd run --table=false --out verdicts.txt
//	afd check --all --config - < Conf.txt
//	afd load parity Conf.txt 1h
//	afd eval parity Cadenas.txt
//
// TTLs use Go duration syntax ("1h", "30m", "2h30m", etc.). Omitting the TTL
// uses the daemon's idle timeout; "0" pins the automaton until unloaded.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/lc/afd/internal/buildinfo"
	"github.com/lc/afd/internal/config"
	"github.com/lc/afd/internal/log"
	"github.com/lc/afd/pkg/client"
)

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "afd: config error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	root := &cobra.Command{
		Use:   "afd",
		Short: "Deterministic finite automaton runner",
		Long: `afd loads a deterministic finite automaton over the alphabet {0,1} from a
section-based configuration file and decides, for each input string, whether
the automaton accepts it. Automata can also be kept loaded in the afdd daemon.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	cli := client.New(cfg.Socket.Path)
	root.AddCommand(
		newRunCmd(cfg),
		newCheckCmd(cfg),
		newShowCmd(cfg),
		newLoadCmd(cli),
		newEvalCmd(cli),
		newListCmd(cli),
		newUnloadCmd(cli),
		newStatusCmd(cli),
		versionCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = root.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(err)
		log.Sync()
		os.Exit(1)
	}
}

// printError writes one diagnostic line per fatal error.
func printError(err error) {
	for _, e := range multierr.Errors(err) {
		fmt.Fprintf(os.Stderr, "afd: %v\n", e)
	}
}
