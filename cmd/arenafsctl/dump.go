package main

import (
	"fmt"
	"path"

	"github.com/jbhuezo1/arenafs"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <image> [path]",
	Short: "Recursively list the tree under path (default /)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := "/"
		if len(args) == 2 {
			start = args[1]
		}

		a, err := arenafs.Open(args[0], 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer a.Close()

		return dumpTree(a, start)
	},
}

// dumpTree walks the tree depth-first, printing one line per entry in an
// `ls -la`-ish layout. Grounded on the teacher's cmd/sqfs listFiles, but
// recursive rather than single-level since arenafsctl has no separate
// "ls" vs "dump" distinction.
func dumpTree(a *arenafs.Arena, p string) error {
	attr, err := a.Getattr(p, 0, 0)
	if err != nil {
		return fmt.Errorf("getattr %s: %w", p, err)
	}
	printEntry(p, attr)
	if !attr.Mode.IsDir() {
		return nil
	}

	names, err := a.Readdir(p)
	if err != nil {
		return fmt.Errorf("readdir %s: %w", p, err)
	}
	for _, name := range names {
		if err := dumpTree(a, path.Join(p, name)); err != nil {
			return err
		}
	}
	return nil
}

func printEntry(p string, attr arenafs.Attr) {
	typeChar := "-"
	if attr.Mode.IsDir() {
		typeChar = "d"
	}
	fmt.Printf("%s%s %8d %s\n", typeChar, attr.Mode.Perm(), attr.Size, p)
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
