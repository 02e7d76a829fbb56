package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/khpawan/mcp-tee-sample/internal/attestation"
	"github.com/khpawan/mcp-tee-sample/internal/secrets"
)

// newTestDispatcher builds a dispatcher whose inventory sees exactly the
// secrets in env. Every declared secret is pinned, so values leaking in
// from the host environment cannot change test outcomes.
func newTestDispatcher(t *testing.T, env map[string]string, githubBaseURL string) *Dispatcher {
	t.Helper()
	for _, name := range SecretNames() {
		t.Setenv(name, env[name])
	}
	inv := secrets.Load(SecretNames())
	rep := attestation.NewReporter("mcp-tee-server", "test", inv, attestation.NewCollector())
	return NewDispatcher(Config{Inventory: inv, Reporter: rep, GitHubBaseURL: githubBaseURL})
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("result carries no content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want *mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func decodeErrorPayload(t *testing.T, res *mcp.CallToolResult) errorPayload {
	t.Helper()
	var p errorPayload
	if err := json.Unmarshal([]byte(resultText(t, res)), &p); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if p.Code == "" {
		t.Fatalf("expected an error payload, got %s", resultText(t, res))
	}
	return p
}

func intp(v int) *int { return &v }

func TestFinishErrorTaxonomy(t *testing.T) {
	d := newTestDispatcher(t, nil, "")

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "secret gate",
			err:      &SecretUnavailableError{Secret: "GITHUB_TOKEN"},
			wantCode: CodeSecretUnavailable,
			wantMsg:  "GITHUB_TOKEN not available: attestation may have failed",
		},
		{
			name:     "validation",
			err:      &InvalidInputError{Reason: "query must not be empty"},
			wantCode: CodeInvalidInput,
			wantMsg:  "query must not be empty",
		},
		{
			name:     "upstream",
			err:      &UpstreamError{Detail: "GitHub API returned status 502"},
			wantCode: CodeUpstreamFailure,
			wantMsg:  "GitHub API returned status 502",
		},
		{
			name:     "untyped errors count as upstream",
			err:      errors.New("boom"),
			wantCode: CodeUpstreamFailure,
			wantMsg:  "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, out, err := d.finish("test_tool", nil, tt.err)
			if err != nil {
				t.Fatalf("finish returned protocol error: %v", err)
			}
			if out != nil {
				t.Fatalf("finish returned structured output %v alongside an error payload", out)
			}
			p := decodeErrorPayload(t, res)
			if p.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", p.Code, tt.wantCode)
			}
			if p.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", p.Error, tt.wantMsg)
			}
		})
	}
}

func TestFinishRedactsSecretValues(t *testing.T) {
	d := newTestDispatcher(t, map[string]string{
		GitHubTokenVar: "ghp-very-secret-0451",
	}, "")

	res, _, err := d.finish("test_tool", nil, &UpstreamError{
		Detail: "upstream rejected token ghp-very-secret-0451",
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	p := decodeErrorPayload(t, res)
	if strings.Contains(p.Error, "ghp-very-secret-0451") {
		t.Fatalf("secret value leaked through error payload: %q", p.Error)
	}
	if !strings.Contains(p.Error, "[REDACTED]") {
		t.Errorf("error = %q, want redaction placeholder", p.Error)
	}
}

func TestFinishSuccessPayload(t *testing.T) {
	d := newTestDispatcher(t, nil, "")

	res, out, err := d.finish("test_tool", map[string]string{"status": "delivered"}, nil)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if out != nil {
		t.Fatalf("finish must carry output inside the result, got %v", out)
	}
	if res.IsError {
		t.Errorf("success result flagged as error")
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got["status"] != "delivered" {
		t.Errorf("payload = %v", got)
	}
}

// newTestSession wires the dispatcher into a server and connects a client
// over an in-memory transport pair.
func newTestSession(t *testing.T, d *Dispatcher) *mcp.ClientSession {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "mcp-tee-server", Version: "test"}, nil)
	Register(server, d)

	ctx := context.Background()
	clientTr, serverTr := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTr, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "probe", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTr, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestRegisterToolCatalog(t *testing.T) {
	d := newTestDispatcher(t, nil, "")
	cs := newTestSession(t, d)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := map[string]*mcp.Tool{}
	for _, tool := range res.Tools {
		got[tool.Name] = tool
	}
	for _, name := range []string{"github_search_issues", "query_database", "send_notification", "attestation_status"} {
		if got[name] == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
	if len(res.Tools) != 4 {
		t.Errorf("registered %d tools, want 4", len(res.Tools))
	}

	notify := got["send_notification"]
	if notify == nil || notify.Annotations == nil {
		t.Fatalf("send_notification missing annotations")
	}
	if notify.Annotations.DestructiveHint == nil || !*notify.Annotations.DestructiveHint {
		t.Errorf("send_notification must carry a destructive hint so clients confirm with the user first")
	}
	if notify.Annotations.ReadOnlyHint {
		t.Errorf("send_notification must not be marked read-only")
	}
	if !strings.Contains(notify.Description, "confirmation") {
		t.Errorf("send_notification description must spell out the confirmation requirement: %q", notify.Description)
	}

	status := got["attestation_status"]
	if status == nil || status.Annotations == nil || !status.Annotations.ReadOnlyHint {
		t.Errorf("attestation_status must be marked read-only")
	}
}

func TestCallToolGateFailureIsPayloadNotProtocolError(t *testing.T) {
	d := newTestDispatcher(t, nil, "")
	cs := newTestSession(t, d)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "query_database",
		Arguments: map[string]any{"sql": "SELECT 1"},
	})
	if err != nil {
		t.Fatalf("gated call failed at the protocol level: %v", err)
	}
	if res.IsError {
		t.Errorf("gate failures travel as payloads, result must not be flagged as a tool error")
	}
	p := decodeErrorPayload(t, res)
	if p.Code != CodeSecretUnavailable {
		t.Errorf("code = %q, want %q", p.Code, CodeSecretUnavailable)
	}
	if p.Error != "DB_CONNECTION_STRING not available: attestation may have failed" {
		t.Errorf("error = %q", p.Error)
	}
}

func TestCallToolAcceptsDocumentedArgumentNames(t *testing.T) {
	// The SDK generates a closed input schema from the argument structs, so
	// a wire name drifting from the documented shape would reject callers
	// with a protocol fault before the handler ever runs.
	dsn := seedUserDB(t)
	d := newTestDispatcher(t, map[string]string{DBConnectionVar: dsn}, "")
	cs := newTestSession(t, d)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "query_database",
		Arguments: map[string]any{"sql": "SELECT name FROM users ORDER BY id", "max_rows": 2},
	})
	if err != nil {
		t.Fatalf("documented arguments rejected at the protocol level: %v", err)
	}
	out := decodeQueryResult(t, resultText(t, res))
	if out.RowCount != 2 {
		t.Errorf("row_count = %d, want 2", out.RowCount)
	}
	if out.Rows[0]["name"] != "ada" {
		t.Errorf("rows[0] = %v", out.Rows[0])
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{0, 1, 50, 1},
		{-3, 1, 50, 1},
		{999, 1, 50, 50},
		{10, 1, 50, 10},
		{5000, 1, 1000, 1000},
	}
	for _, tt := range tests {
		if got := clampInt(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
