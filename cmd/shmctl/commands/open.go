package commands

import (
	"fmt"

	"github.com/marmos91/dittoshm/pkg/shm"
	"github.com/spf13/cobra"
)

var openReadWrite bool

var openCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open an existing shared memory segment and print its metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openReadWrite, "read-write", false, "open for writing instead of read-only")
}

func runOpen(cmd *cobra.Command, args []string) error {
	name := args[0]

	mode := shm.AccessReadOnly
	if openReadWrite {
		mode = shm.AccessReadWrite
	}

	seg, err := shm.NewBuilder(name).AccessMode(mode).OpenExisting()
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	defer seg.Close()

	fmt.Printf("opened %q: size=%d base=%#x\n", seg.Name(), seg.Size(), seg.BaseAddress())
	return nil
}
