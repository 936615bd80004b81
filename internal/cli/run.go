package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kraitsec/krait/internal/compiler"
	"github.com/kraitsec/krait/internal/engine"
	"github.com/kraitsec/krait/internal/harness"
	"github.com/kraitsec/krait/internal/store"
)

// RunResult holds the outcome of inspecting a packet file.
type RunResult struct {
	Packets  int                        `json:"packets"`
	Matches  []engine.MatchEvent        `json:"matches"`
	Rejected []compiler.ValidationError `json:"rejected,omitempty"`
}

// packetFile is the on-disk packet capture format: buffers in mixed
// text/hex notation, the same notation scenario files use.
type packetFile struct {
	Packets []harness.PacketDef `yaml:"packets"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "run <rules> <packets>",
		Short: "Inspect packets against compiled rules",
		Long: `Compile rules and inspect every packet in a packet file.

Match events are printed in inspection order. With --db, events are
also persisted to a SQLite database for later querying.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], args[1], dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "persist match events to a SQLite database at this path")

	return cmd
}

func runInspect(opts *RootOptions, rulesPath, packetsPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	defs, err := LoadRuleDefs(rulesPath)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Message)
		}
		return WrapExitError(ExitCommandError, "loading rules", err)
	}

	packets, err := loadPackets(packetsPath)
	if err != nil {
		formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading packets", err)
	}
	formatter.VerboseLog("Loaded %d rule(s), %d packet(s)", len(defs), len(packets))

	reg := engine.DefaultRegistry()
	defer reg.Shutdown()

	ruleset, compileErrs := compiler.New(reg).Compile(defs)
	defer ruleset.Close()

	for _, e := range compileErrs {
		formatter.VerboseLog("rejected: %s", e.Error())
	}
	if len(ruleset.Signatures) == 0 {
		formatter.Error(compiler.ErrNoKeywords, "no rules compiled", compileErrs)
		return NewExitError(ExitFailure, "no rules compiled")
	}

	var st *store.Store
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening database", err)
		}
		defer st.Close()
	}

	eng := engine.New(reg, ruleset)
	result := RunResult{Packets: len(packets), Rejected: compileErrs}

	ctx := cmd.Context()
	for _, def := range packets {
		pkt, err := def.Decode()
		if err != nil {
			return WrapExitError(ExitCommandError, "decoding packet", err)
		}
		for _, ev := range eng.Inspect(pkt) {
			if st != nil {
				if err := st.WriteEvent(ctx, ev); err != nil {
					return WrapExitError(ExitCommandError, "persisting event", err)
				}
			}
			result.Matches = append(result.Matches, ev)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	printRunText(formatter, result)
	return nil
}

func printRunText(f *OutputFormatter, result RunResult) {
	for _, ev := range result.Matches {
		fmt.Fprintf(f.Writer, "%s sid=%d packet=%s msg=%q",
			color.GreenString("MATCH"), ev.SID, ev.PacketID, ev.Msg)
		if len(ev.Vars) > 0 {
			fmt.Fprintf(f.Writer, " vars=%v", ev.Vars)
		}
		fmt.Fprintln(f.Writer)
	}
	fmt.Fprintf(f.Writer, "%d match(es) across %d packet(s)\n", len(result.Matches), result.Packets)
}

// loadPackets reads a packet file.
func loadPackets(path string) ([]harness.PacketDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet file: %w", err)
	}
	var file packetFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse packet file: %w", err)
	}
	if len(file.Packets) == 0 {
		return nil, fmt.Errorf("packet file defines no packets")
	}
	return file.Packets, nil
}
