package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time:
//
//	go build -ldflags "-X github.com/khpawan/mcp-tee-sample/internal/version.Version=1.2.0
//	  -X github.com/khpawan/mcp-tee-sample/internal/version.GitCommit=abc1234"
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
)

// String returns a human-readable version string.
func String(binaryName string) string {
	return fmt.Sprintf("%s %s (commit=%s, go=%s, %s/%s)",
		binaryName, Version, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
