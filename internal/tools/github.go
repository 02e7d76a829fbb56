package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/oauth2"

	"github.com/khpawan/mcp-tee-sample/internal/logx"
)

const (
	defaultGitHubBaseURL = "https://api.github.com"

	githubTimeout     = 15 * time.Second
	defaultMaxResults = 10
	maxMaxResults     = 50
)

type SearchIssuesArgs struct {
	Query      string `json:"query,omitempty" jsonschema:"search terms, GitHub issue search syntax"`
	Repo       string `json:"repo,omitempty" jsonschema:"optional owner/name repository to scope the search to"`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"maximum number of issues to return, 1 to 50, default 10"`
}

type issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	URL       string   `json:"url"`
	UpdatedAt string   `json:"updated_at"`
	Labels    []string `json:"labels"`
}

type searchIssuesResult struct {
	TotalCount int     `json:"total_count"`
	Returned   int     `json:"returned"`
	Issues     []issue `json:"issues"`
}

type githubSearchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Number    int    `json:"number"`
		Title     string `json:"title"`
		State     string `json:"state"`
		HTMLURL   string `json:"html_url"`
		UpdatedAt string `json:"updated_at"`
		Labels    []struct {
			Name string `json:"name"`
		} `json:"labels"`
	} `json:"items"`
}

func (d *Dispatcher) SearchIssues(ctx context.Context, req *mcp.CallToolRequest, args SearchIssuesArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.searchIssues(ctx, args)
	return d.finish("github_search_issues", out, err)
}

func (d *Dispatcher) searchIssues(ctx context.Context, args SearchIssuesArgs) (*searchIssuesResult, error) {
	token, err := d.requireSecret(GitHubTokenVar)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return nil, &InvalidInputError{Reason: "query must not be empty"}
	}
	if repo := strings.TrimSpace(args.Repo); repo != "" {
		query += " repo:" + repo
	}
	max := defaultMaxResults
	if args.MaxResults != nil {
		max = clampInt(*args.MaxResults, 1, maxMaxResults)
	}

	ctx, cancel := context.WithTimeout(ctx, githubTimeout)
	defer cancel()

	// oauth2.NewClient picks up d.httpClient as its base via the context key.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, d.httpClient), src)

	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(max))
	params.Set("sort", "updated")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, d.githubBaseURL+"/search/issues?"+params.Encode(), nil)
	if err != nil {
		return nil, &UpstreamError{Detail: err.Error()}
	}
	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := fmt.Sprintf("GitHub API returned status %d", resp.StatusCode)
		if msg := strings.TrimSpace(string(body)); msg != "" {
			detail += ": " + msg
		}
		return nil, &UpstreamError{Detail: detail}
	}

	var payload githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Detail: "decode GitHub response: " + err.Error()}
	}

	items := payload.Items
	if len(items) > max {
		items = items[:max]
	}
	issues := make([]issue, 0, len(items))
	for _, it := range items {
		labels := make([]string, 0, len(it.Labels))
		for _, l := range it.Labels {
			labels = append(labels, l.Name)
		}
		issues = append(issues, issue{
			Number:    it.Number,
			Title:     it.Title,
			State:     it.State,
			URL:       it.HTMLURL,
			UpdatedAt: it.UpdatedAt,
			Labels:    labels,
		})
	}

	logx.Infof("github_search_issues: query=%q results=%d", query, len(issues))
	return &searchIssuesResult{TotalCount: payload.TotalCount, Returned: len(issues), Issues: issues}, nil
}
