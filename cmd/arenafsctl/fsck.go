package main

import (
	"fmt"

	"github.com/jbhuezo1/arenafs"
	"github.com/spf13/cobra"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck <image>",
	Short: "Check an arenafs image's superblock invariants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := arenafs.Open(args[0], 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer a.Close()

		sb, err := arenafs.EnsureInitialized(a.Bytes())
		if err != nil {
			return fmt.Errorf("read superblock: %w", err)
		}
		if err := sb.CheckInvariants(); err != nil {
			return fmt.Errorf("%s: invariant violation: %w", args[0], err)
		}
		fmt.Printf("%s: ok (%d/%d blocks free)\n", args[0], sb.FreeBlocks(), sb.BlockCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fsckCmd)
}
