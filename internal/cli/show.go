// internal/cli/show.go
package palm

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

// showCmd represents the 'show' command group for displaying resources.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
	Long:  `The 'show' command groups subcommands that display resources or information related to palm.`,
}

var showVerbose bool

// showConfigCmd prints the merged configuration.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overridden by flags accordingly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), cfg.ConfigPath, *cfg, showVerbose)
		return nil
	},
}

func init() {
	showConfigCmd.Flags().BoolVarP(&showVerbose, "verbose", "v", false, "dump every configuration field")

	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
