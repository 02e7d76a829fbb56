package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khpawan/mcp-tee-sample/internal/version"
)

// NewRouter creates and configures the Gin router. The MCP endpoint lives
// at /mcp; everything else is plumbing around it.
func NewRouter(cfg *Config, mcpHandler http.Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"server":  ServerName,
			"version": version.Version,
		})
	})

	// Streamable HTTP uses POST for messages, GET for the event stream and
	// DELETE for session teardown, so the route matches any method.
	if cfg.AuthToken != "" {
		r.Any("/mcp", BearerAuth(cfg.AuthToken), gin.WrapH(mcpHandler))
	} else {
		r.Any("/mcp", gin.WrapH(mcpHandler))
	}

	return r
}
