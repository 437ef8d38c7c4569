package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interntrack/internal/config"
	"interntrack/internal/mcpserver"
)

var mcpUser string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve journal tools to an MCP client over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout. Every tool acts
for the single user given by --user or MCP_USER_ID, with the same rules as
the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		raw := mcpUser
		if raw == "" {
			raw = cfg.MCPUserID
		}
		if raw == "" {
			return errors.New("a user is required: pass --user or set MCP_USER_ID")
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", raw, err)
		}

		// stdout carries the protocol, so logs go to stderr only.
		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{"stderr"}
		logger, err := zcfg.Build()
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := build(cmd.Context(), cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		tools := mcpserver.NewTools(userID, a.journals, a.progress, a.compilation)
		return mcpserver.Serve(mcpserver.New(tools))
	},
}
