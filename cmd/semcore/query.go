package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/sunholo/semcore/internal/db"
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/macroexpand"
	"github.com/sunholo/semcore/internal/nameres"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <seed.yaml>",
		Short: "Start an interactive REPL for issuing queries against a loaded crate seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbase, crates, err := openSession(args[0], newLogger())
			if err != nil {
				return err
			}
			return runQueryREPL(dbase, crates, os.Stdout)
		},
	}
}

var queryCommands = []string{":help", ":quit", ":crates", ":defs", ":item", ":infer", ":trace"}

// runQueryREPL is a liner-backed REPL loop (history file,
// multiline-agnostic single-line prompt, ":"-prefixed commands with
// completion) aimed at "issue a query against the loaded Database"
// rather than "evaluate an expression".
func runQueryREPL(dbase *db.Database, crates []input.CrateID, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(os.TempDir(), ".semcore_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(l string) (c []string) {
		if strings.HasPrefix(l, ":") {
			for _, cmd := range queryCommands {
				if strings.HasPrefix(cmd, l) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	fmt.Fprintf(out, "%s %d crate(s) loaded\n", bold("semcore query"), len(crates))
	fmt.Fprintln(out, "Type :help for commands, :quit to exit")

	for {
		text, err := line.Prompt("semcore> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("\nGoodbye!"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		if text == ":quit" || text == ":q" {
			break
		}
		handleQueryCommand(dbase, crates, text, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
	return nil
}

func handleQueryCommand(dbase *db.Database, crates []input.CrateID, text string, out io.Writer) {
	fields := strings.Fields(text)
	switch fields[0] {
	case ":help":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  :crates                list loaded crate ids")
		fmt.Fprintln(out, "  :defs <crate>          list definitions visible in a crate")
		fmt.Fprintln(out, "  :item <idx>            show an item-tree entry for function def <idx>")
		fmt.Fprintln(out, "  :infer <idx>           run inference on function def <idx>, print types")
		fmt.Fprintln(out, "  :trace <file-id>       walk a macro-expansion file back to real source")
		fmt.Fprintln(out, "  :quit                  exit")

	case ":crates":
		for _, c := range crates {
			fmt.Fprintf(out, "  %s %d\n", cyan("crate"), c)
		}

	case ":defs":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: :defs <crate>")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			return
		}
		dm := dbase.DefMapOf(input.CrateID(n))
		if dm == nil {
			fmt.Fprintln(out, red("no such crate"))
			return
		}
		for _, fd := range walkDefs(dbase, dm) {
			fmt.Fprintf(out, "  %s(%d) %s %s\n", yellow(fd.Kind.String()), fd.Def.Idx, cyan("→"), fd.Name)
		}

	case ":item":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: :item <idx> (function defs only)")
			return
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			return
		}
		def := nameres.DefID{Kind: nameres.DefFunction, Idx: uint32(idx)}
		item, ok := dbase.ItemOf(def)
		if !ok {
			fmt.Fprintln(out, red("unknown def"))
			return
		}
		fmt.Fprintf(out, "  name=%s generics=%d fields=%d variants=%d\n",
			dbase.Interner.Lookup(item.Name), len(item.Generics), len(item.Fields), len(item.Variants))

	case ":infer":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: :infer <idx>")
			return
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			return
		}
		def := nameres.DefID{Kind: nameres.DefFunction, Idx: uint32(idx)}
		ctx, ok := dbase.InferenceOf(def)
		if !ok {
			fmt.Fprintln(out, red("cannot build inference context for that def"))
			return
		}
		for expr, ty := range ctx.ExprTypes {
			fmt.Fprintf(out, "  expr(%v) : %s\n", expr, ctx.Types.String(ty))
		}
		for _, r := range ctx.Diags.All() {
			printReport(r)
		}

	case ":trace":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: :trace <file-id>")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("Error"), err)
			return
		}
		steps := macroexpand.Trace(dbase.ExpansionOf, input.FileID(n))
		if len(steps) == 0 {
			fmt.Fprintln(out, "already real source, or unknown file")
			return
		}
		for i, s := range steps {
			fmt.Fprintf(out, "  hop %d: file(%d) expanded from file(%d)\n", i, s.File, s.CallSite)
		}

	default:
		fmt.Fprintf(out, "unknown command %q, type :help\n", fields[0])
	}
}
