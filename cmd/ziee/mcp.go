package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ziee tools to an MCP client over stdio",
	Long: `Serve runs in the foreground and speaks MCP on stdin/stdout, exposing
chat, conversation search, index queries and the model catalog as tools.
Wire it into an MCP client configuration as:

  {"command": "ziee", "args": ["mcp", "serve"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServe(cmd.Context())
	},
}

func runMCPServe(ctx context.Context) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	srv := mcpserver.NewServer(mcpserver.Deps{
		Chat:    client,
		History: client,
		Catalog: client,
		Indexes: client,
	})

	slog.Info("MCP server started (stdio transport)")
	stdio := server.NewStdioServer(srv)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
