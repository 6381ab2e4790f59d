package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rongronggg9/power-profiles-daemon/internal/config"
	"github.com/Rongronggg9/power-profiles-daemon/internal/daemon"
	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
)

var (
	verbosity int
	replace   bool
	statePath string
	sysfsRoot string
)

var rootCmd = &cobra.Command{
	Use:     "power-profiles-daemon",
	Version: daemon.Version,
	Short:   "Power profiles daemon",
	Long:    "Makes power profiles handling available over D-Bus",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbosity)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if statePath == "" {
			statePath = config.DefaultPath()
		}
		err := daemon.Run(daemon.Options{
			StatePath: statePath,
			SysfsRoot: sysfsRoot,
			Replace:   replace,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Show extra debugging information")
	rootCmd.Flags().BoolVarP(&replace, "replace", "r", false, "Replace the running instance of power-profiles-daemon")
	rootCmd.Flags().StringVar(&statePath, "config", "", "Path of the persisted state file")
	rootCmd.Flags().StringVar(&sysfsRoot, "sysfs-root", "", "Root directory prepended to all sysfs paths")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(listHoldsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the daemon version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(daemon.Version)
	},
}
