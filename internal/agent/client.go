package agent

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/khpawan/mcp-tee-sample/internal/version"
)

// Connect dials an MCP TEE server over streamable HTTP and performs the
// handshake. The caller owns the returned session and must close it.
func Connect(ctx context.Context, endpoint, authToken string) (*mcp.ClientSession, error) {
	httpClient := &http.Client{}
	if authToken != "" {
		httpClient.Transport = &authRoundTripper{token: authToken, base: http.DefaultTransport}
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "mcp-tee-agent",
		Version: version.Version,
	}, nil)

	return client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: httpClient,
	}, nil)
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (rt *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+rt.token)
	return rt.base.RoundTrip(clone)
}

// diagnose renders an error as the single operator-facing line the agent
// prints instead of a stack of wrapped causes.
func diagnose(err error) string {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
		urlErr *url.Error
	)
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr), errors.As(err, &urlErr),
		errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, context.DeadlineExceeded):
		return "Connection failed: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
