package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jbhuezo1/arenafs"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell <image>",
	Short: "Interactive REPL over an arenafs image's C5 operations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := arenafs.Open(args[0], 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer a.Close()
		return runShell(a)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// runShell dispatches one C5 operation per line. It exists so the
// arenafs package can be poked at without a real FUSE mount, the way the
// teacher's sqfs ls/cat/info subcommands let you inspect an image without
// mounting it.
func runShell(a *arenafs.Arena) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("arenafsctl shell - type 'help' for commands, 'quit' to exit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := dispatch(a, fields); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func dispatch(a *arenafs.Arena, fields []string) error {
	switch fields[0] {
	case "quit", "exit":
		os.Exit(0)
	case "help":
		fmt.Println("ls <path> | stat <path> | mkdir <path> | mknod <path> | rm <path> | rmdir <path> | mv <from> <to> | cat <path> | write <path> <text> | truncate <path> <size> | statfs")
	case "ls":
		if len(fields) != 2 {
			return fmt.Errorf("usage: ls <path>")
		}
		names, err := a.Readdir(fields[1])
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
	case "stat":
		if len(fields) != 2 {
			return fmt.Errorf("usage: stat <path>")
		}
		attr, err := a.Getattr(fields[1], 0, 0)
		if err != nil {
			return err
		}
		fmt.Printf("mode=%s size=%d mtime=%s\n", attr.Mode, attr.Size, attr.Mtime.Format(time.RFC3339))
	case "mkdir":
		if len(fields) != 2 {
			return fmt.Errorf("usage: mkdir <path>")
		}
		return a.Mkdir(fields[1], 0)
	case "mknod":
		if len(fields) != 2 {
			return fmt.Errorf("usage: mknod <path>")
		}
		return a.Mknod(fields[1], 0)
	case "rm":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rm <path>")
		}
		return a.Unlink(fields[1])
	case "rmdir":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rmdir <path>")
		}
		return a.Rmdir(fields[1])
	case "mv":
		if len(fields) != 3 {
			return fmt.Errorf("usage: mv <from> <to>")
		}
		return a.Rename(fields[1], fields[2])
	case "cat":
		if len(fields) != 2 {
			return fmt.Errorf("usage: cat <path>")
		}
		return catFile(a, fields[1])
	case "write":
		if len(fields) < 3 {
			return fmt.Errorf("usage: write <path> <text>")
		}
		text := strings.Join(fields[2:], " ")
		n, err := a.Write(fields[1], 0, []byte(text))
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes\n", n)
	case "truncate":
		if len(fields) != 3 {
			return fmt.Errorf("usage: truncate <path> <size>")
		}
		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid size: %w", err)
		}
		return a.Truncate(fields[1], size)
	case "statfs":
		res, err := a.Statfs()
		if err != nil {
			return err
		}
		fmt.Printf("block_size=%d block_count=%d free_blocks=%d avail_blocks=%d name_max=%d\n",
			res.BlockSize, res.BlockCount, res.FreeBlocks, res.AvailBlocks, res.NameMax)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
	return nil
}

func catFile(a *arenafs.Arena, p string) error {
	attr, err := a.Getattr(p, 0, 0)
	if err != nil {
		return err
	}
	buf := make([]byte, attr.Size)
	n, err := a.Read(p, 0, buf)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf[:n])
	return err
}
