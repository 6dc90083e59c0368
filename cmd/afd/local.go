package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/config"
	"github.com/lc/afd/internal/eval"
	"github.com/lc/afd/internal/filesys"
	"github.com/lc/afd/internal/parser"
	"github.com/lc/afd/internal/report"
)

// stdinPath selects standard input in place of a configuration file.
const stdinPath = "-"

func parserOpts(cfg *config.Config) []parser.Opt {
	return []parser.Opt{
		parser.WithMarker(cfg.Parser.HeaderMarker),
		parser.WithMaxStates(cfg.Parser.MaxStates),
	}
}

// readConfigLines reads the automaton configuration file, or stdin for "-".
func readConfigLines(path string) ([]string, error) {
	if path == stdinPath {
		lines, err := filesys.ScanLines(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading configuration from stdin: %w", err)
		}
		return lines, nil
	}
	lines, err := filesys.ReadLines(filesys.OS(), path)
	if err != nil {
		return nil, fmt.Errorf("cannot open configuration %s: %w", path, err)
	}
	return lines, nil
}

func loadAutomaton(cfg *config.Config, path string) (*automaton.Automaton, error) {
	if path == stdinPath {
		return parser.ParseReader(os.Stdin, parserOpts(cfg)...)
	}
	lines, err := readConfigLines(path)
	if err != nil {
		return nil, err
	}
	return parser.Parse(lines, parserOpts(cfg)...)
}

// ---- run command ----
func newRunCmd(cfg *config.Config) *cobra.Command {
	var (
		confPath    string
		stringsPath string
		showTable   bool
		workers     int
		outPath     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the automaton and evaluate every input string",
		Long: `Load the automaton configuration and print one verdict line per input
string. The literal token E in the strings file stands for the empty string.`,
		Example: "afd run --config Conf.txt --strings Cadenas.txt",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a, err := loadAutomaton(cfg, confPath)
			if err != nil {
				return err
			}
			inputs, err := eval.ReadInputs(filesys.OS(), stringsPath)
			if err != nil {
				return err
			}
			rep, err := eval.Evaluate(c.Context(), a, inputs, workers)
			if err != nil {
				return err
			}

			if outPath == "" {
				writeRun(os.Stdout, a, rep, showTable)
				return nil
			}
			color.NoColor = true
			var buf bytes.Buffer
			writeRun(&buf, a, rep, showTable)
			if err := filesys.AtomicWrite(filesys.OS(), outPath, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Fprintln(os.Stderr, report.Summary(rep))
			return nil
		},
	}
	cmd.Flags().StringVar(&confPath, "config", cfg.Files.Automaton, `automaton configuration file ("-" for stdin)`)
	cmd.Flags().StringVar(&stringsPath, "strings", cfg.Files.Strings, "input strings file")
	cmd.Flags().BoolVar(&showTable, "table", true, "print the automaton before the verdicts (--table=false to omit)")
	cmd.Flags().IntVar(&workers, "workers", cfg.Eval.Workers, "parallel evaluation workers")
	cmd.Flags().StringVar(&outPath, "out", "", "write verdicts to a file instead of stdout")
	return cmd
}

func writeRun(w io.Writer, a *automaton.Automaton, rep *eval.Report, showTable bool) {
	if showTable {
		report.WriteAutomaton(w, a)
		fmt.Fprintln(w)
	}
	report.WriteResults(w, rep.Results)
}

// ---- check command ----
func newCheckCmd(cfg *config.Config) *cobra.Command {
	var (
		confPath string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the automaton configuration",
		Long: `Parse and validate the automaton configuration without evaluating any
strings. With --all every end-of-input violation is reported instead of the
first one.`,
		Example: "afd check --config Conf.txt --all",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			lines, err := readConfigLines(confPath)
			if err != nil {
				return err
			}
			p := parser.New(parserOpts(cfg)...)
			if all {
				err = p.Check(lines)
			} else {
				_, err = p.Parse(lines)
			}
			if err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ %s is a valid automaton\n", confPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&confPath, "config", cfg.Files.Automaton, `automaton configuration file ("-" for stdin)`)
	cmd.Flags().BoolVar(&all, "all", false, "report every validation error")
	return cmd
}

// ---- show command ----
func newShowCmd(cfg *config.Config) *cobra.Command {
	var confPath string
	cmd := &cobra.Command{
		Use:     "show",
		Short:   "Print the states and transition table",
		Example: "afd show --config Conf.txt",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := loadAutomaton(cfg, confPath)
			if err != nil {
				return err
			}
			report.WriteAutomaton(os.Stdout, a)
			return nil
		},
	}
	cmd.Flags().StringVar(&confPath, "config", cfg.Files.Automaton, `automaton configuration file ("-" for stdin)`)
	return cmd
}
