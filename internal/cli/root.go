// Package cli provides the command-line interface for storegate.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/storegate/internal/cli/commands"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storegate",
		Short: "Storegate - storefront edge gateway",
		Long: `Storegate is the server-side edge of a headless WordPress/WooCommerce
storefront: locale and auth routing, CDN cache policy, a draft-content
preview proxy, payment confirmation, and exchange rates.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./storegate.yaml)")

	rootCmd.AddCommand(commands.NewServeCommand(&cfgFile))
	rootCmd.AddCommand(commands.NewDoctorCommand(&cfgFile))
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
