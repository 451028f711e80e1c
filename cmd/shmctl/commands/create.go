package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/marmos91/dittoshm/internal/bytesize"
	"github.com/marmos91/dittoshm/pkg/shm"
	"github.com/spf13/cobra"
)

var (
	createSize       = sizeFlag{value: 4096}
	createMode       string
	createPermission uint32
	createZero       bool
	createLock       bool
	createOwning     bool
	createRandomName bool
)

// sizeFlag adapts bytesize.ByteSize to pflag.Value so --size accepts
// human-readable forms like "1Mi" or "500MB" alongside plain byte counts.
type sizeFlag struct {
	value bytesize.ByteSize
}

func (f *sizeFlag) String() string { return f.value.String() }

func (f *sizeFlag) Set(s string) error {
	parsed, err := bytesize.ParseByteSize(s)
	if err != nil {
		return err
	}
	f.value = parsed
	return nil
}

func (f *sizeFlag) Type() string { return "size" }

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a named shared memory segment",
	Long: `Create a named shared memory segment of the given size.

Examples:
  shmctl create mysegment --size 4096
  shmctl create --random-name --size 1Mi --mode purge_and_create
  shmctl create mysegment --size 4096 --zero-memory --lock`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().Var(&createSize, "size", "segment size, e.g. 4096, 1Mi, 500MB")
	createCmd.Flags().StringVar(&createMode, "mode", "", "creation mode: create_exclusive|purge_and_create|open_or_create (default from config)")
	createCmd.Flags().Uint32Var(&createPermission, "permission", 0, "octal permission bits (default from config)")
	createCmd.Flags().BoolVar(&createZero, "zero-memory", false, "zero-fill the segment after creation")
	createCmd.Flags().BoolVar(&createLock, "lock", false, "memory-lock the segment")
	createCmd.Flags().BoolVar(&createOwning, "owning", false, "unlink the segment's name when this process exits")
	createCmd.Flags().BoolVar(&createRandomName, "random-name", false, "generate a random throwaway name instead of taking one as an argument")
}

func runCreate(cmd *cobra.Command, args []string) error {
	name, err := resolveCreateName(args)
	if err != nil {
		return err
	}

	mode, err := parseCreationMode(firstNonEmpty(createMode, cfg.CreationMode))
	if err != nil {
		return err
	}

	permission := createPermission
	if permission == 0 {
		permission = cfg.Permission
	}

	zero := createZero || cfg.ZeroMemory

	seg, err := shm.NewBuilder(name).
		CreationMode(mode).
		Size(createSize.value.Uint64()).
		Permission(shm.Permission(permission)).
		ZeroMemory(zero).
		IsMemoryLocked(createLock).
		HasOwnership(createOwning).
		Create()
	if err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	defer seg.Close()

	fmt.Printf("created %q: size=%d owning=%v base=%#x\n", seg.Name(), seg.Size(), seg.HasOwnership(), seg.BaseAddress())
	return nil
}

func resolveCreateName(args []string) (string, error) {
	if createRandomName {
		return "shmctl-" + uuid.NewString(), nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return "", fmt.Errorf("a segment name is required, or pass --random-name")
}

func parseCreationMode(mode string) (shm.CreationMode, error) {
	switch mode {
	case "create_exclusive":
		return shm.CreateExclusive, nil
	case "purge_and_create":
		return shm.PurgeAndCreate, nil
	case "open_or_create", "":
		return shm.OpenOrCreate, nil
	default:
		return 0, fmt.Errorf("unknown creation mode %q", mode)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
