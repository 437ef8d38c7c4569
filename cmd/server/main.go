package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interntrack/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "interntrack",
	Short: "Internship hour tracker API",
	Long: `interntrack records daily internship journals, counts finished hours
towards the 486 hour target and compiles the finished days into a report.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, mcpCmd)
	mcpCmd.Flags().StringVar(&mcpUser, "user", "", "UUID of the user the MCP tools act for (defaults to MCP_USER_ID)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
