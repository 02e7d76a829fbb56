package server

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/khpawan/mcp-tee-sample/internal/tools"
	"github.com/khpawan/mcp-tee-sample/internal/version"
)

// ServerName is the identity reported during the MCP handshake and inside
// every attestation status record.
const ServerName = "mcp-tee-server"

const serverInstructions = "A reference MCP server for confidential computing " +
	"environments (AMD SEV-SNP, Intel TDX). Demonstrates TEE-protected credential " +
	"management with remote attestation: gated tools work only when their backing " +
	"secret was provisioned to the enclave, and attestation_status reports the " +
	"evidence. send_notification has externally visible effect and needs explicit " +
	"user confirmation."

// NewMCPServer builds the MCP server with every tool registered.
func NewMCPServer(d *tools.Dispatcher) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions,
	})
	tools.Register(s, d)
	return s
}

// NewStreamableHandler exposes the MCP server over streamable HTTP. Every
// request is routed to the same server instance.
func NewStreamableHandler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}
