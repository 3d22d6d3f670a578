package github

import (
	"context"
	"net/url"
	"strings"
)

const (
	openIssuesQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    issues(states: OPEN) { totalCount }
  }
}`

	labelledIssuesQuery = `query($owner: String!, $name: String!, $labels: [String!]) {
  repository(owner: $owner, name: $name) {
    issues(states: OPEN, filterBy: {labels: $labels}) { totalCount }
  }
}`
)

// IssuesURL returns the browsable list of open issues. With labels it is a
// search for issues carrying any of them. Labels are escaped as path
// segments: "/" becomes %2F, a space %20, and ":" is kept.
func IssuesURL(scmURL string, labels []string) string {
	if len(labels) == 0 {
		return scmURL + "/issues"
	}
	escaped := make([]string, len(labels))
	for i, l := range labels {
		escaped[i] = url.PathEscape(l)
	}
	return scmURL + "/issues?q=is%3Aopen+is%3Aissue+label%3A" + strings.Join(escaped, ",")
}

// IssuesKey is the cache key for an issue count. Unlabelled counts use
// "<owner>-<name>", which is ambiguous when either part contains a hyphen
// ("a-b/c" and "a/b-c" share a key). The format is kept so existing
// snapshots stay valid.
func IssuesKey(repo RepoCoordinates, labels []string) string {
	if len(labels) == 0 {
		return repo.Owner + "-" + repo.Name
	}
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = `"` + l + `"`
	}
	return strings.Join(quoted, ",")
}

// CountIssues counts open issues, optionally filtered by labels. The
// returned info always carries the URL, even alongside an error.
func (c *Client) CountIssues(ctx context.Context, repo RepoCoordinates, labels []string, scmURL string) (IssueInfo, error) {
	info := IssueInfo{URL: IssuesURL(scmURL, labels)}

	doc := openIssuesQuery
	vars := map[string]any{"owner": repo.Owner, "name": repo.Name}
	if len(labels) > 0 {
		doc = labelledIssuesQuery
		vars["labels"] = labels
	}

	var data struct {
		Repository *struct {
			Issues *struct {
				TotalCount *int `json:"totalCount"`
			} `json:"issues"`
		} `json:"repository"`
	}
	if err := c.Decode(ctx, doc, vars, &data); err != nil {
		return info, err
	}
	if data.Repository != nil && data.Repository.Issues != nil {
		info.Count = data.Repository.Issues.TotalCount
	}
	return info, nil
}
