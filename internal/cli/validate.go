package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraitsec/krait/internal/compiler"
	"github.com/kraitsec/krait/internal/engine"
)

// ValidationResult holds rule-validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	RuleCount   int                        `json:"rule_count"`
	Compiled    int                        `json:"compiled"`
	Fingerprint string                     `json:"fingerprint,omitempty"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules>",
		Short: "Compile rules and report diagnostics",
		Long: `Compile a rule file or CUE rule pack and report every rejected rule.

A rule that fails to compile is rejected with a diagnostic; the rest of
the ruleset still compiles. Exit code 1 means at least one rule was
rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, rulesPath string, cmd *cobra.Command) error {
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
		formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading rules", err)
	}
	formatter.VerboseLog("Loaded %d rule definition(s) from %s", len(defs), rulesPath)

	reg := engine.DefaultRegistry()
	defer reg.Shutdown()

	ruleset, compileErrs := compiler.New(reg).Compile(defs)
	defer ruleset.Close()

	result := ValidationResult{
		Valid:       len(compileErrs) == 0,
		RuleCount:   len(defs),
		Compiled:    len(ruleset.Signatures),
		Fingerprint: ruleset.Fingerprint,
		Errors:      compileErrs,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printValidationText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d rule(s) rejected", len(compileErrs)))
	}
	return nil
}

func printValidationText(f *OutputFormatter, result ValidationResult) {
	for _, e := range result.Errors {
		fmt.Fprintln(f.Writer, color.RedString("REJECT"), e.Error())
	}
	if result.Valid {
		fmt.Fprintf(f.Writer, "%s %d rule(s) compiled, fingerprint %s\n",
			color.GreenString("OK"), result.Compiled, result.Fingerprint)
	} else {
		fmt.Fprintf(f.Writer, "%d of %d rule(s) compiled\n", result.Compiled, result.RuleCount)
	}
}
