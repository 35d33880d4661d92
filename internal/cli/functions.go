package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/pansql/internal/funcs"
)

// NewFunctionsCommand creates the functions command, which lists the
// built-in functions scripts can call.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:           "functions",
		Short:         "List built-in functions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			entries := []funcs.Entry{}
			for _, e := range funcs.Catalog() {
				if kind == "" || e.Kind == kind {
					entries = append(entries, e)
				}
			}
			if formatter.Format == "json" {
				return formatter.Success(entries)
			}

			tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			for _, e := range entries {
				if formatter.Verbose && e.Doc != "" {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Kind, e.Signature, e.Doc)
				} else {
					fmt.Fprintf(tw, "%s\t%s\n", e.Kind, e.Signature)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only list one kind (function|property|special)")
	return cmd
}
