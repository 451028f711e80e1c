// Package commands implements the CLI commands for shmctl.
package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/dittoshm/internal/config"
	"github.com/marmos91/dittoshm/internal/logger"
	"github.com/marmos91/dittoshm/internal/winuds"
	"github.com/marmos91/dittoshm/pkg/metrics"
	"github.com/marmos91/dittoshm/pkg/shm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configPath string
var cfg *config.Config

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "shmctl",
	Short: "shmctl - manage named POSIX shared memory segments",
	Long: `shmctl is a command-line tool for creating, opening, removing, and
listing named POSIX shared memory segments, built on top of the
dittoshm library.

Use "shmctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: "stderr"})
		m := metrics.NewMetrics(prometheus.DefaultRegisterer)
		shm.SetMetrics(m)
		winuds.SetMetrics(m)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: "+config.DefaultConfigPath()+")")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("shmctl %s (commit %s, built %s)\n", Version, Commit, Date)
		return nil
	},
}
