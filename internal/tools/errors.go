package tools

import "fmt"

// Error codes carried inside tool result payloads. The RPC call itself
// always succeeds; failures travel as data so a caller can tell a missing
// capability from bad input from an upstream fault.
const (
	CodeSecretUnavailable = "secret_unavailable"
	CodeInvalidInput      = "invalid_input"
	CodeUpstreamFailure   = "upstream_failure"
)

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SecretUnavailableError reports a failed capability gate: the secret the
// tool depends on was never provisioned to this process.
type SecretUnavailableError struct {
	Secret string
}

func (e *SecretUnavailableError) Error() string {
	return fmt.Sprintf("%s not available: attestation may have failed", e.Secret)
}

// InvalidInputError reports arguments that failed validation.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// UpstreamError reports a failed outbound call. Detail is redacted before it
// leaves the dispatcher.
type UpstreamError struct {
	Detail string
}

func (e *UpstreamError) Error() string {
	return e.Detail
}
