package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

// statusRecord is the agent's local read of an attestation payload. Every
// field is optional on the wire; absent or mistyped fields keep their
// pessimistic defaults so a sloppy server can never look more trustworthy
// than it proved itself to be.
type statusRecord struct {
	Server       string
	Version      string
	RunningInTEE bool
	TEEType      string
	Secrets      []secretFlag
	Timestamp    string
}

// secretFlag preserves the order secrets appear in on the wire.
type secretFlag struct {
	Name   string
	Loaded bool
}

// Verify connects to an MCP TEE server, fetches its attestation status and
// renders the report to out. The returned value is the process exit code:
// 0 only when the server runs inside a TEE and every secret it declares is
// loaded.
func Verify(ctx context.Context, endpoint, authToken string, out io.Writer) int {
	fmt.Fprintf(out, "Connecting to: %s\n\n", endpoint)

	session, err := Connect(ctx, endpoint, authToken)
	if err != nil {
		fmt.Fprintln(out, diagnose(err))
		return 1
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "attestation_status",
		Arguments: map[string]any{},
	})
	if err != nil {
		fmt.Fprintln(out, diagnose(err))
		return 1
	}

	rec, err := extractStatus(res)
	if err != nil {
		fmt.Fprintf(out, "Malformed response: %v\n", err)
		return 1
	}

	return renderReport(out, rec)
}

// extractStatus pulls the attestation record out of a tool result. The
// payload is the first content element, which must be text holding a JSON
// object.
func extractStatus(res *mcp.CallToolResult) (statusRecord, error) {
	if res == nil || len(res.Content) == 0 {
		return statusRecord{}, fmt.Errorf("result carries no content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		return statusRecord{}, fmt.Errorf("first content element is %T, not text", res.Content[0])
	}
	return parseStatus(tc.Text)
}

// parseStatus walks the payload token by token so the order of
// secrets_loaded survives. Unknown keys are skipped, known keys of the
// wrong type fall back to their defaults.
func parseStatus(raw string) (statusRecord, error) {
	rec := statusRecord{
		Server:    "unknown",
		Version:   "unknown",
		TEEType:   "unknown",
		Timestamp: "unknown",
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return rec, fmt.Errorf("payload is not valid JSON: %v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return rec, fmt.Errorf("payload is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return rec, fmt.Errorf("payload is not valid JSON: %v", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return rec, fmt.Errorf("payload is not a JSON object")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return rec, fmt.Errorf("payload is not valid JSON: %v", err)
		}

		switch key {
		case "server":
			stringInto(value, &rec.Server)
		case "version":
			stringInto(value, &rec.Version)
		case "running_in_tee":
			var b bool
			if json.Unmarshal(value, &b) == nil {
				rec.RunningInTEE = b
			}
		case "tee_type":
			stringInto(value, &rec.TEEType)
		case "secrets_loaded":
			rec.Secrets = parseSecretFlags(value)
		case "timestamp":
			stringInto(value, &rec.Timestamp)
		}
	}
	return rec, nil
}

func stringInto(raw json.RawMessage, dst *string) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		*dst = s
	}
}

// parseSecretFlags reads a secrets_loaded object in wire order. Any value
// that is not literally true counts as not loaded.
func parseSecretFlags(raw json.RawMessage) []secretFlag {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var flags []secretFlag
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return flags
		}
		name, ok := keyTok.(string)
		if !ok {
			return flags
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return flags
		}
		loaded := false
		json.Unmarshal(value, &loaded)
		flags = append(flags, secretFlag{Name: name, Loaded: loaded})
	}
	return flags
}

// renderReport prints the attestation report and returns the exit code.
func renderReport(out io.Writer, rec statusRecord) int {
	teeMark := crossMark
	if rec.RunningInTEE {
		teeMark = checkMark
	}

	fmt.Fprintln(out, "MCP TEE Server — Attestation Report")
	fmt.Fprintln(out, strings.Repeat("=", 45))
	fmt.Fprintf(out, "Server:        %s v%s\n", rec.Server, rec.Version)
	fmt.Fprintf(out, "TEE detected:  %s  (%s)\n", teeMark, rec.TEEType)
	fmt.Fprintln(out, "Secrets:")
	var missing []string
	for _, f := range rec.Secrets {
		mark := checkMark
		if !f.Loaded {
			mark = crossMark
			missing = append(missing, f.Name)
		}
		fmt.Fprintf(out, "  %-26s%s\n", f.Name, mark)
	}
	fmt.Fprintf(out, "Timestamp:     %s\n", rec.Timestamp)
	fmt.Fprintln(out)

	if !rec.RunningInTEE {
		fmt.Fprintln(out, "WARNING  Not running in a TEE — expected for local development.")
	}
	if len(missing) > 0 {
		fmt.Fprintf(out, "WARNING  Missing secrets: %s\n", strings.Join(missing, ", "))
	}

	if rec.RunningInTEE && len(missing) == 0 {
		fmt.Fprintln(out, "OK  Server is attested and all secrets are loaded.")
		return 0
	}
	return 1
}
