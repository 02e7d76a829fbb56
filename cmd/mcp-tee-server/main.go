package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/khpawan/mcp-tee-sample/internal/attestation"
	"github.com/khpawan/mcp-tee-sample/internal/logx"
	"github.com/khpawan/mcp-tee-sample/internal/secrets"
	"github.com/khpawan/mcp-tee-sample/internal/server"
	"github.com/khpawan/mcp-tee-sample/internal/tools"
	"github.com/khpawan/mcp-tee-sample/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose debug logs (same as --log-level debug)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error (or MCP_TEE_LOG_LEVEL)")
	envFile := flag.String("env-file", ".env", "Load environment from this file (skipped if not found and not explicitly set)")
	flag.BoolVar(showVersion, "v", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.String("mcp-tee-server"))
		fmt.Fprintf(os.Stderr, "Attestation-gated MCP server. Tools unlock only when their capability secret\nwas provisioned to the enclave; attestation_status reports the evidence.\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_TOKEN          Enables github_search_issues\n")
		fmt.Fprintf(os.Stderr, "  DB_CONNECTION_STRING  Enables query_database (postgres:// URL or SQLite path)\n")
		fmt.Fprintf(os.Stderr, "  WEBHOOK_URL           Enables send_notification\n")
		fmt.Fprintf(os.Stderr, "  MCP_TRANSPORT         stdio or streamable-http (default: streamable-http)\n")
		fmt.Fprintf(os.Stderr, "  MCP_TEE_AUTH_TOKEN    Bearer token required on /mcp (min 16 chars, optional)\n")
		fmt.Fprintf(os.Stderr, "  GITHUB_API_URL        GitHub API base URL override (default: https://api.github.com)\n")
		fmt.Fprintf(os.Stderr, "  MCP_TEE_LOG_LEVEL     Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("mcp-tee-server"))
		os.Exit(0)
	}

	envFileExplicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "env-file" {
			envFileExplicit = true
		}
	})
	if err := godotenv.Load(*envFile); err != nil {
		if envFileExplicit || !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("load env file: %v", err)
		}
	}

	if err := logx.Configure(*logLevel, *verbose); err != nil {
		log.Fatalf("configure logging: %v", err)
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	inv := secrets.Load(tools.SecretNames())
	// Every log line from here on passes through the masker, so a secret
	// value can never reach stderr even via an upstream error string.
	logx.SetOutput(inv.MaskingWriter(os.Stderr))

	collector := attestation.NewCollector()
	reporter := attestation.NewReporter(server.ServerName, version.Version, inv, collector)
	dispatcher := tools.NewDispatcher(tools.Config{
		Inventory:     inv,
		Reporter:      reporter,
		GitHubBaseURL: cfg.GitHubBaseURL,
	})
	mcpServer := server.NewMCPServer(dispatcher)

	logx.Infof("starting mcp-tee-server %s", version.Version)
	var pairs []string
	for _, f := range inv.Flags() {
		pairs = append(pairs, fmt.Sprintf("%s=%t", f.Name, f.Present))
	}
	logx.Infof("secrets loaded: %s", strings.Join(pairs, " "))
	logx.Infof("TEE evidence: %s", collector.Collect())
	logx.Infof("transport: %s", cfg.Transport)

	if cfg.Transport == server.TransportStdio {
		if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	r := server.NewRouter(cfg, server.NewStreamableHandler(mcpServer))
	log.Printf("mcp-tee-server listening on %s", server.ListenAddr)
	if err := r.Run(server.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
