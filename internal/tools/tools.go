package tools

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/khpawan/mcp-tee-sample/internal/attestation"
	"github.com/khpawan/mcp-tee-sample/internal/logx"
	"github.com/khpawan/mcp-tee-sample/internal/secrets"
)

// Declared capability secrets. Order here is the order every status record
// and report lists them in.
const (
	GitHubTokenVar  = "GITHUB_TOKEN"
	DBConnectionVar = "DB_CONNECTION_STRING"
	WebhookURLVar   = "WEBHOOK_URL"
)

// SecretNames returns the declared capability secrets in declaration order.
func SecretNames() []string {
	return []string{GitHubTokenVar, DBConnectionVar, WebhookURLVar}
}

// Dispatcher owns the gated tools. Every invocation runs the same protocol:
// gate on the required secret, validate input, execute with a per-call
// timeout. Invocations share nothing but the read-only inventory, so they
// are safe to run concurrently.
type Dispatcher struct {
	inv           *secrets.Inventory
	reporter      *attestation.Reporter
	githubBaseURL string
	httpClient    *http.Client
}

type Config struct {
	Inventory *secrets.Inventory
	Reporter  *attestation.Reporter

	// GitHubBaseURL overrides the GitHub API endpoint (GitHub Enterprise,
	// tests). Defaults to https://api.github.com.
	GitHubBaseURL string

	// HTTPClient is the base client for outbound calls. Timeouts come from
	// per-call contexts, not from the client.
	HTTPClient *http.Client
}

func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		inv:           cfg.Inventory,
		reporter:      cfg.Reporter,
		githubBaseURL: strings.TrimRight(cfg.GitHubBaseURL, "/"),
		httpClient:    cfg.HTTPClient,
	}
	if d.githubBaseURL == "" {
		d.githubBaseURL = defaultGitHubBaseURL
	}
	if d.httpClient == nil {
		d.httpClient = &http.Client{}
	}
	return d
}

// Register adds all tools to the MCP server. send_notification is the one
// write action here and is annotated non-read-only and destructive so
// clients know to ask the user before calling it.
func Register(server *mcp.Server, d *Dispatcher) {
	yes := true
	no := false

	mcp.AddTool(server, &mcp.Tool{
		Name: "github_search_issues",
		Description: "Search GitHub issues, optionally scoped to one repository. " +
			"Requires the GITHUB_TOKEN capability secret.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: &yes},
	}, d.SearchIssues)

	mcp.AddTool(server, &mcp.Tool{
		Name: "query_database",
		Description: "Run a read-only SELECT against the configured database. " +
			"Statements are screened by substring, not parsed; a SELECT mentioning " +
			"a forbidden word in a literal or identifier is rejected too. " +
			"Requires the DB_CONNECTION_STRING capability secret.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: &yes},
	}, d.QueryDatabase)

	mcp.AddTool(server, &mcp.Tool{
		Name: "send_notification",
		Description: "Post a message to the team notification webhook. This is a " +
			"write action with externally visible effect: agents must obtain " +
			"explicit user confirmation before calling it. " +
			"Requires the WEBHOOK_URL capability secret.",
		Annotations: &mcp.ToolAnnotations{DestructiveHint: &yes, OpenWorldHint: &yes},
	}, d.SendNotification)

	mcp.AddTool(server, &mcp.Tool{
		Name: "attestation_status",
		Description: "Report TEE evidence and which capability secrets are " +
			"provisioned (presence only, never values). Ungated.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true, OpenWorldHint: &no},
	}, d.AttestationStatus)
}

// requireSecret is the capability gate. It runs before validation and
// before any I/O.
func (d *Dispatcher) requireSecret(name string) (string, error) {
	v, err := d.inv.Value(name)
	if err != nil {
		return "", &SecretUnavailableError{Secret: name}
	}
	return v, nil
}

// finish converts a handler outcome into a tool result. Failures become
// typed payloads in the result body: the call itself succeeds at the
// protocol level either way.
func (d *Dispatcher) finish(tool string, out any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		p := d.errorPayload(err)
		logx.Warnf("%s failed: %s (%s)", tool, p.Error, p.Code)
		res, _ := jsonResult(p)
		return res, nil, nil
	}
	res, jerr := jsonResult(out)
	if jerr != nil {
		p := errorPayload{Error: d.inv.Redact("encode result: " + jerr.Error()), Code: CodeUpstreamFailure}
		logx.Warnf("%s failed: %s (%s)", tool, p.Error, p.Code)
		res, _ = jsonResult(p)
	}
	return res, nil, nil
}

// errorPayload maps typed dispatcher errors onto the wire taxonomy.
// Upstream detail is redacted so a misbehaving upstream cannot echo a
// secret value back through us; anything untyped is treated as upstream.
func (d *Dispatcher) errorPayload(err error) errorPayload {
	var (
		su *SecretUnavailableError
		ii *InvalidInputError
		ue *UpstreamError
	)
	switch {
	case errors.As(err, &su):
		return errorPayload{Error: su.Error(), Code: CodeSecretUnavailable}
	case errors.As(err, &ii):
		return errorPayload{Error: ii.Error(), Code: CodeInvalidInput}
	case errors.As(err, &ue):
		return errorPayload{Error: d.inv.Redact(ue.Error()), Code: CodeUpstreamFailure}
	default:
		return errorPayload{Error: d.inv.Redact(err.Error()), Code: CodeUpstreamFailure}
	}
}

// jsonResult renders v as the single text content element clients parse,
// and as structured content for typed clients.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: string(raw)}},
		StructuredContent: v,
	}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
