// Command labportal serves the home-lab portal and offers client commands
// for inspecting a running instance.
package main

//	@title			labportal API
//	@version		0.1.0
//	@description	Home-lab portal API: theme, presence and portal configuration.
//	@BasePath		/api/v1

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	_ "github.com/HerbHall/labportal/api/swagger"
	"github.com/HerbHall/labportal/internal/version"
)

var (
	configPath string
	serverURL  string
	noColor    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "labportal",
		Short: "Home-lab portal with Home Assistant driven theme and presence",
		Long: `labportal serves the home-lab dashboard: navigation tiles and status
badges from a portal configuration document, a theme that follows the
browser, a saved choice or a Home Assistant entity, and a presence strip.

Run without a subcommand to start the server.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: runServe,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "base URL of a running labportal (default from configuration)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newServeCmd(),
		newVersionCmd(),
		newFetchConfigCmd(),
		newPingCmd(),
		newThemeCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
