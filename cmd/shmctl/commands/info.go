package commands

import (
	"fmt"

	"github.com/marmos91/dittoshm/pkg/shm"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Print platform capabilities, or details about one segment",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Printf("persistency supported: %v\n", shm.SupportsPersistency())
		return nil
	}

	name := args[0]
	if !shm.Exists(name) {
		fmt.Printf("%q does not exist\n", name)
		return nil
	}

	seg, err := shm.NewBuilder(name).TryOpenExisting()
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	defer seg.Close()

	fmt.Printf("name: %s\n", seg.Name())
	fmt.Printf("size: %d\n", seg.Size())
	fmt.Printf("base address: %#x\n", seg.BaseAddress())
	fmt.Printf("owning: %v\n", seg.HasOwnership())
	return nil
}
