// Package cli wires configuration, storage, clients and the pipeline into
// the vantage command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDir string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Vantage - automated pull request review service",
	Long: `Vantage analyzes the changed files of a pull request, selects the
minimal set of related files through the import graph, sends the
assembled context to an external reasoning service, and publishes the
validated findings back on the pull request.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing vantage.yml")
}
