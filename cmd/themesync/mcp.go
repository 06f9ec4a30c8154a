package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server over stdio",
	Long:  "Start an MCP (Model Context Protocol) server over stdio, letting AI clients list themes, download snapshots, sanitize templates and check the live-theme guard.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		srv := mcpserver.New(mcpserver.Deps{
			Themes:    a.cli,
			Manifests: a.manifests(),
			Sanitizer: a.sanitizer(),
			Workspace: a.ws,
			Config:    a.cfg,
			FS:        a.fs,
			Logger:    a.logger,
		}, version)
		return srv.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
