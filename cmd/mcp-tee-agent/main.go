package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khpawan/mcp-tee-sample/internal/agent"
	"github.com/khpawan/mcp-tee-sample/internal/version"
)

const defaultServerURL = "http://localhost:8080/mcp"

// resolveServerURL returns the MCP endpoint from the positional argument,
// the --server flag or the MCP_SERVER_URL env var, in that order. Prints a
// warning to stderr when falling back to the env var.
func resolveServerURL(cmd *cobra.Command, args []string, flagValue string) string {
	normalize := func(v string) string {
		for len(v) > 1 && v[len(v)-1] == '/' {
			v = v[:len(v)-1]
		}
		return v
	}
	if len(args) > 0 {
		return normalize(args[0])
	}
	if cmd.Flags().Changed("server") {
		return normalize(flagValue)
	}
	if v := os.Getenv("MCP_SERVER_URL"); v != "" {
		fmt.Fprintf(os.Stderr, "mcp-tee-agent: WARNING: using server URL from MCP_SERVER_URL environment variable\n")
		return normalize(v)
	}
	return defaultServerURL
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "mcp-tee-agent",
		Short:   "Client agent for attestation-gated MCP servers",
		Version: version.Version,
	}
	rootCmd.SetVersionTemplate(version.String("mcp-tee-agent") + "\n")

	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newToolsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVerifyCmd() *cobra.Command {
	var (
		serverURL string
		authToken string
	)

	cmd := &cobra.Command{
		Use:   "verify [endpoint]",
		Short: "Fetch and render a server's attestation report",
		Long: `Connect to an MCP TEE server, call attestation_status and render the
attestation report. Exits 0 only when the server runs inside a TEE and
every secret it declares is loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := resolveServerURL(cmd, args, serverURL)
			if code := agent.Verify(cmd.Context(), endpoint, authToken, os.Stdout); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "MCP endpoint URL (or set MCP_SERVER_URL)")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "Bearer token for protected endpoints")

	return cmd
}

func newToolsCmd() *cobra.Command {
	var (
		serverURL string
		authToken string
	)

	cmd := &cobra.Command{
		Use:   "tools [endpoint]",
		Short: "List the server's tools and their confirmation requirements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := resolveServerURL(cmd, args, serverURL)
			if code := agent.ListTools(cmd.Context(), endpoint, authToken, os.Stdout); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "MCP endpoint URL (or set MCP_SERVER_URL)")
	cmd.Flags().StringVar(&authToken, "auth-token", "", "Bearer token for protected endpoints")

	return cmd
}
