// Command arenafsctl formats, inspects, and mounts arenafs images.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arenafsctl",
	Short: "Format, inspect, and mount arenafs images",
	Long: `arenafsctl operates on arenafs images: flat files holding a
superblock, block bitmap, and an inode/directory tree, as described by
the core arenafs package.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "arenafsctl:", err)
		os.Exit(1)
	}
}
