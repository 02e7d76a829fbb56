package tools

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/khpawan/mcp-tee-sample/internal/logx"
)

const (
	queryTimeout   = 15 * time.Second
	defaultMaxRows = 100
	maxMaxRows     = 1000
)

// forbiddenKeywords is a substring screen, not a SQL parser. A SELECT that
// merely mentions one of these words in a literal or identifier is rejected
// too; the screen prefers false rejections over letting a write through.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "TRUNCATE", "EXEC",
}

type QueryDatabaseArgs struct {
	SQL     string `json:"sql,omitempty" jsonschema:"SQL SELECT statement to execute"`
	MaxRows *int   `json:"max_rows,omitempty" jsonschema:"maximum number of rows to return, 1 to 1000, default 100"`
}

type queryDatabaseResult struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
}

func (d *Dispatcher) QueryDatabase(ctx context.Context, req *mcp.CallToolRequest, args QueryDatabaseArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.queryDatabase(ctx, args)
	return d.finish("query_database", out, err)
}

func (d *Dispatcher) queryDatabase(ctx context.Context, args QueryDatabaseArgs) (*queryDatabaseResult, error) {
	dsn, err := d.requireSecret(DBConnectionVar)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(args.SQL)
	upper := strings.ToUpper(query)
	if !strings.HasPrefix(upper, "SELECT") {
		return nil, &InvalidInputError{Reason: "Only SELECT queries are permitted (read-only mode)"}
	}
	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			return nil, &InvalidInputError{Reason: "Query contains forbidden keyword: " + kw}
		}
	}
	max := defaultMaxRows
	if args.MaxRows != nil {
		max = clampInt(*args.MaxRows, 1, maxMaxRows)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// One connection per call, released when the call finishes. The server
	// holds no database state between invocations.
	db, err := sqlx.Open(driverFor(dsn), dsn)
	if err != nil {
		return nil, &UpstreamError{Detail: "Query failed: " + err.Error()}
	}
	defer db.Close()

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, &UpstreamError{Detail: "Query failed: " + err.Error()}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &UpstreamError{Detail: "Query failed: " + err.Error()}
	}

	out := make([]map[string]any, 0, min(max, 64))
	truncated := false
	for rows.Next() {
		if len(out) == max {
			truncated = true
			break
		}
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, &UpstreamError{Detail: "Query failed: " + err.Error()}
		}
		for k, v := range row {
			switch tv := v.(type) {
			case []byte:
				row[k] = string(tv)
			case time.Time:
				row[k] = tv.UTC().Format(time.RFC3339)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &UpstreamError{Detail: "Query failed: " + err.Error()}
	}

	logx.Infof("query_database: rows=%d truncated=%t", len(out), truncated)
	return &queryDatabaseResult{
		Columns:   columns,
		Rows:      out,
		RowCount:  len(out),
		Truncated: truncated,
	}, nil
}

// driverFor picks the SQL driver from the connection string shape. Postgres
// URLs go to lib/pq; everything else is treated as a SQLite DSN.
func driverFor(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	default:
		return "sqlite"
	}
}
