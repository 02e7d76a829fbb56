package agent

import (
	"context"
	"fmt"
	"io"
)

// ListTools prints the server's tool catalog, marking tools whose
// annotations demand explicit user confirmation before a call.
func ListTools(ctx context.Context, endpoint, authToken string, out io.Writer) int {
	fmt.Fprintf(out, "Connecting to: %s\n\n", endpoint)

	session, err := Connect(ctx, endpoint, authToken)
	if err != nil {
		fmt.Fprintln(out, diagnose(err))
		return 1
	}
	defer session.Close()

	res, err := session.ListTools(ctx, nil)
	if err != nil {
		fmt.Fprintln(out, diagnose(err))
		return 1
	}

	for _, tool := range res.Tools {
		marker := ""
		if tool.Annotations != nil && tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint {
			marker = "  (requires confirmation)"
		}
		fmt.Fprintf(out, "%s%s\n", tool.Name, marker)
		if tool.Description != "" {
			fmt.Fprintf(out, "    %s\n", tool.Description)
		}
	}
	return 0
}
