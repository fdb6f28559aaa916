package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/carevisit_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/carevisit_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "carevisit",
	Short: "Scheduling and care records for home-visit nursing and pharmacy teams.",
	Long: `carevisit is a multi-tenant backend for home-visit nurses and pharmacists.
It keeps facilities, patients and visit schedules per organization, sends
reminder emails and publishes calendars as ICS feeds and PDF exports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
