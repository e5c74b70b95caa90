package main

import (
	"fmt"

	"github.com/jbhuezo1/arenafs"
	"github.com/spf13/cobra"
)

var formatSize int64

var formatCmd = &cobra.Command{
	Use:   "format <image>",
	Short: "Create a new arenafs image and initialize its superblock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := arenafs.Open(args[0], int(formatSize))
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer a.Close()

		sb, err := arenafs.EnsureInitialized(a.Bytes())
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		fmt.Printf("formatted %s: %d blocks of %d bytes, %d free\n",
			args[0], sb.BlockCount(), sb.BlockSize(), sb.FreeBlocks())
		return a.Sync()
	},
}

func init() {
	formatCmd.Flags().Int64VarP(&formatSize, "size", "s", 16<<20, "image size in bytes")
	rootCmd.AddCommand(formatCmd)
}
