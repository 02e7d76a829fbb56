package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AttestationStatusArgs struct{}

// AttestationStatus is the one ungated tool. It reports fresh evidence on
// every call and never returns an error payload in practice; clients rely
// on it succeeding even when every secret is missing.
func (d *Dispatcher) AttestationStatus(ctx context.Context, req *mcp.CallToolRequest, args AttestationStatusArgs) (*mcp.CallToolResult, any, error) {
	st := d.reporter.Status(ctx)
	return d.finish("attestation_status", st, nil)
}
