package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command: compile without writing.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [script-pattern...]",
		Short: "Report compile errors without writing output",
		Long: `Compile PanSQL scripts and report their diagnostics. Nothing is
written and the build cache is not used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			p, err := openProject(rootOpts, formatter, false)
			if err != nil {
				return err
			}
			defer p.Close()

			results, err := p.compile(cmd.Context(), formatter, args)
			if err != nil {
				return err
			}
			reports, failed := p.report(results)
			if failed.count > 0 {
				return outputFailures(formatter, reports, failed)
			}
			if formatter.Format == "json" {
				return formatter.Success(reports)
			}
			fmt.Fprintf(formatter.Writer, "✓ %d script(s) OK\n", len(reports))
			return nil
		},
	}
}
