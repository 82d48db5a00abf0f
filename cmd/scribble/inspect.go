package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/astio"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diagfmt"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Print the units, declarations and references of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, _ := cmd.Flags().GetBool("refs")
		spans, _ := cmd.Flags().GetBool("spans")
		colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
		maxDiag, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		useColor, err := readColorMode(colorFlag, os.Stdout)
		if err != nil {
			return err
		}

		snap, _, err := astio.NewStore().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		bag := diag.NewBag(maxDiag)
		b, units, err := astio.Build(snap, args[0], diag.BagReporter{Bag: bag})
		bag.Sort()
		printDiagnostics(cmd.ErrOrStderr(), bag, nil, useColor, "pretty")
		if err != nil {
			return err
		}
		if err := diagfmt.UnitTree(cmd.OutOrStdout(), b, units, diagfmt.TreeOpts{
			Color: useColor,
			Refs:  refs,
			Spans: spans,
		}); err != nil {
			return err
		}
		quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d unit(s), %d declaration(s), %d reference(s)\n",
				len(snap.Units), len(snap.Decls), len(snap.Refs))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().Bool("refs", false, "list references under their declarations")
	inspectCmd.Flags().Bool("spans", false, "show source locations")
}
