package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/khpawan/mcp-tee-sample/internal/logx"
)

// ListenAddr is where the streamable HTTP transport binds. Confidential
// container platforms map the public port onto this one, so it is fixed
// rather than configurable.
const ListenAddr = "0.0.0.0:8080"

// Transports the server can speak.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config holds server configuration loaded from environment variables.
// Capability secrets are loaded separately and never pass through here.
type Config struct {
	Transport     string
	AuthToken     string
	GitHubBaseURL string
}

// LoadConfig loads server configuration from environment variables. An
// unrecognized MCP_TRANSPORT degrades to the networked default with a
// warning instead of refusing to start.
func LoadConfig() (*Config, error) {
	transport := TransportStreamableHTTP
	if v := strings.TrimSpace(os.Getenv("MCP_TRANSPORT")); v != "" {
		switch v {
		case TransportStdio, TransportStreamableHTTP:
			transport = v
		default:
			logx.Warnf("unknown MCP_TRANSPORT %q, falling back to streamable-http", v)
		}
	}

	authToken := os.Getenv("MCP_TEE_AUTH_TOKEN")
	if authToken != "" && len(authToken) < 16 {
		return nil, fmt.Errorf("MCP_TEE_AUTH_TOKEN must be at least 16 characters")
	}

	return &Config{
		Transport:     transport,
		AuthToken:     authToken,
		GitHubBaseURL: strings.TrimSpace(os.Getenv("GITHUB_API_URL")),
	}, nil
}
