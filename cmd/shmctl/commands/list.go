package commands

import (
	"fmt"

	"github.com/marmos91/dittoshm/pkg/shm"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List named shared memory segments",
	Long: `List named shared memory segments currently visible on this system.

Not every platform can enumerate segments: macOS and Windows have no
kernel-level directory of shared memory objects. On Windows, where
"shmctl info" reports persistency as unsupported, this command prints a
note saying so; on macOS it prints nothing.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	if !shm.SupportsPersistency() {
		fmt.Println("this platform does not expose a shared memory directory to enumerate")
		return nil
	}

	names, err := shm.List()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
