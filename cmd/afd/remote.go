package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/afd/internal/eval"
	"github.com/lc/afd/internal/filesys"
	"github.com/lc/afd/internal/report"
	"github.com/lc/afd/pkg/client"
)

const _requestTimeout = 5 * time.Second

// ---- load command ----
func newLoadCmd(cli *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "load <name> <config-file> [ttl]",
		Short: "Load an automaton into the daemon",
		Long: `Send an automaton configuration to afdd and keep it loaded under <name>.
Loading a name that already exists replaces the previous automaton.

Examples:
  afd load parity Conf.txt          Load with the daemon's idle timeout
  afd load parity Conf.txt 2h       Unload after 2 hours without use
  afd load parity Conf.txt 0        Keep loaded until explicitly unloaded`,
		Example: "afd load parity Conf.txt 1h",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(c *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			var (
				ttl time.Duration
				pin bool
			)
			if len(args) == 3 {
				var err error
				ttl, err = time.ParseDuration(args[2])
				if err != nil {
					return fmt.Errorf("invalid ttl: %w", err)
				}
				if ttl < 0 {
					return fmt.Errorf("invalid ttl: %s", args[2])
				}
				pin = ttl == 0
			}
			lines, err := readConfigLines(path)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Context(), _requestTimeout)
			defer cancel()
			info, err := cli.Load(ctx, name, strings.Join(lines, "\n"), ttl, pin)
			if err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Printf("✓ Loaded ")
			color.New(color.FgHiGreen, color.Bold).Printf("%s ", info.Name)
			color.New(color.FgGreen).Printf("(%s, %d states)\n", info.ID, len(info.States))
			return nil
		},
	}
}

// ---- eval command ----
func newEvalCmd(cli *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:     "eval <name|id> <strings-file>",
		Short:   "Evaluate strings against a loaded automaton",
		Example: "afd eval parity Cadenas.txt",
		Args:    cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			inputs, err := eval.ReadInputs(filesys.OS(), args[1])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context(), _requestTimeout)
			defer cancel()
			resp, err := cli.Eval(ctx, args[0], inputs)
			if err != nil {
				return err
			}
			report.WriteResults(os.Stdout, resp.Results)
			return nil
		},
	}
}

// ---- list command ----
func newListCmd(cli *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List automata loaded in the daemon",
		Long: `List every automaton loaded in afdd with its ID, state count, initial
state, accepting states and when it expires (if not pinned).`,
		Example: "afd list",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
			defer cancel()
			automata, err := cli.Automata(ctx)
			if err != nil {
				return err
			}
			if len(automata) == 0 {
				color.Yellow("No automata loaded.")
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "ID", "States", "Initial", "Finals", "Expires"})
			headerColor := tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor}
			table.SetHeaderColor(headerColor, headerColor, headerColor, headerColor, headerColor, headerColor)
			table.SetBorder(false)
			table.SetColumnColor(
				tablewriter.Colors{tablewriter.FgGreenColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgYellowColor},
				tablewriter.Colors{tablewriter.FgYellowColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
			)

			for _, a := range automata {
				expires := "never"
				if a.Expires != nil {
					expires = a.Expires.Format(time.RFC3339)
				}
				table.Append([]string{
					a.Name,
					a.ID,
					fmt.Sprint(len(a.States)),
					a.Initial,
					strings.Join(a.Finals, " "),
					expires,
				})
			}

			color.New(color.Bold).Println("LOADED AUTOMATA:")
			table.Render()
			return nil
		},
	}
}

// ---- unload command ----
func newUnloadCmd(cli *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:     "unload <name|id>",
		Short:   "Remove an automaton from the daemon",
		Example: "afd unload parity",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(c.Context(), _requestTimeout)
			defer cancel()
			if err := cli.Unload(ctx, args[0]); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Unloaded %s\n", args[0])
			return nil
		},
	}
}

// ---- status command ----
func newStatusCmd(cli *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
			defer cancel()
			st, err := cli.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("afdd %s (%s)\n", st.Version, st.Commit)
			fmt.Printf("uptime: %s\n", st.Uptime.Truncate(time.Second))
			fmt.Printf("automata loaded: %d\n", st.Automata)
			if st.NextExpiry != nil {
				fmt.Printf("next expiry: %s\n", st.NextExpiry.Format(time.RFC3339))
			}
			return nil
		},
	}
}
