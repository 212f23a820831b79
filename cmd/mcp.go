package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/mossy/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio so an assistant
can read and update your day. Configure it in the client with:

  {
    "mcpServers": {
      "mossy": { "command": "mossy", "args": ["mcp", "--user", "alice"] }
    }
  }

Available tools: mossy_day, mossy_check, mossy_streaks, mossy_history,
mossy_catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol.
		ui.Out = os.Stderr
		svc, err := getService()
		if err != nil {
			return err
		}
		srv := mcp.NewServer(svc, viper.GetString("user"), buildVersion)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
