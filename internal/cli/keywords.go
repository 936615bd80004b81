package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraitsec/krait/internal/engine"
	"github.com/kraitsec/krait/internal/keyword"
)

// KeywordInfo is one row of the keyword table listing.
type KeywordInfo struct {
	Name  string   `json:"name"`
	Desc  string   `json:"desc"`
	URL   string   `json:"url,omitempty"`
	Flags []string `json:"flags,omitempty"`
}

// NewKeywordsCommand creates the keywords command.
func NewKeywordsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords",
		Short: "List registered rule keywords",
		Long:  "List every registered rule keyword with its description and option flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeywords(rootOpts, cmd)
		},
	}
}

func runKeywords(opts *RootOptions, cmd *cobra.Command) error {
	reg := engine.DefaultRegistry()
	defer reg.Shutdown()

	infos := make([]KeywordInfo, 0, reg.Len())
	for id := 0; id < reg.Len(); id++ {
		r, _ := reg.Get(keyword.ID(id))
		infos = append(infos, KeywordInfo{
			Name:  r.Name,
			Desc:  r.Desc,
			URL:   r.URL,
			Flags: flagNames(r.Flags),
		})
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(infos)
	}

	bold := color.New(color.Bold)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", bold.Sprint("KEYWORD"), bold.Sprint("FLAGS"), bold.Sprint("DESCRIPTION"))
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, strings.Join(info.Flags, ","), info.Desc)
	}
	return w.Flush()
}

func flagNames(f keyword.Flags) []string {
	var names []string
	if f.Has(keyword.FlagNoOption) {
		names = append(names, "no-option")
	}
	if f.Has(keyword.FlagOptionalOption) {
		names = append(names, "optional-option")
	}
	if f.Has(keyword.FlagQuotesMandatory) {
		names = append(names, "quoted")
	}
	if f.Has(keyword.FlagStickyBuffer) {
		names = append(names, "sticky-buffer")
	}
	return names
}
