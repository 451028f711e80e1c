package commands

import (
	"fmt"

	"github.com/marmos91/dittoshm/pkg/shm"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"remove", "unlink"},
	Short:   "Remove a named shared memory segment",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := shm.Remove(name); err != nil {
		if shm.IsRemoveDoesNotExistError(err) {
			return fmt.Errorf("%q does not exist", name)
		}
		return fmt.Errorf("remove %q: %w", name, err)
	}
	fmt.Printf("removed %q\n", name)
	return nil
}
