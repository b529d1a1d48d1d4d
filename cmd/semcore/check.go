package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunholo/semcore/internal/db"
	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/nameres"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <seed.yaml>",
		Short: "Load a crate seed and run the full pipeline, printing diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbase, crates, err := openSession(args[0], newLogger())
			if err != nil {
				return err
			}
			errCount, warnCount := runCheck(dbase, crates, true)
			if errCount > 0 {
				return fmt.Errorf("%d error(s)", errCount)
			}
			fmt.Printf("\n%s no errors (%d warnings)\n", green("✓"), warnCount)
			return nil
		},
	}
}

// runCheck drives item-tree/def-map/body/inference over every def
// of every crate, printing a listing when listing is set, and returns
// the total error and warning diagnostic counts across every source
// (def-map collection and per-function inference alike).
func runCheck(dbase *db.Database, crates []input.CrateID, listing bool) (errCount, warnCount int) {
	for _, crate := range crates {
		dm := dbase.DefMapOf(crate)
		if dm == nil {
			continue
		}
		if listing {
			fmt.Printf("%s crate %d\n", cyan("→"), crate)
		}
		for _, r := range dm.Diagnostics.All() {
			printReport(r)
			tally(r.Severity, &errCount, &warnCount)
		}

		for _, fd := range walkDefs(dbase, dm) {
			if listing {
				fmt.Printf("  %s %s\n", yellow(fd.Kind.String()), fd.Name)
			}
			if fd.Kind != nameres.DefFunction {
				continue
			}
			ctx, ok := dbase.InferenceOf(fd.Def)
			if !ok {
				continue
			}
			for _, r := range ctx.Diags.All() {
				printReport(r)
				tally(r.Severity, &errCount, &warnCount)
			}
		}
	}
	return errCount, warnCount
}

func tally(sev diag.Severity, errCount, warnCount *int) {
	switch sev {
	case diag.SeverityError:
		*errCount++
	case diag.SeverityWarning:
		*warnCount++
	}
}
