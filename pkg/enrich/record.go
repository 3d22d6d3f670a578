package enrich

import (
	"time"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
)

// Record is the source-control information gathered for one catalog entry.
// Key is the entry's full scm-url metadata and links the record back to it.
// Optional fields are left empty when their lookup failed or found nothing.
type Record struct {
	Key     string `json:"key"`
	URL     string `json:"url"`
	Project string `json:"project,omitempty"`
	Owner   string `json:"owner,omitempty"`

	IssuesURL string   `json:"issuesUrl,omitempty"`
	Issues    *int     `json:"issues,omitempty"`
	Labels    []string `json:"labels,omitempty"`

	OwnerImageURL string `json:"ownerImageUrl,omitempty"`
	SocialImage   string `json:"socialImage,omitempty"`

	ExtensionYamlURL    string `json:"extensionYamlUrl,omitempty"`
	ExtensionPathInRepo string `json:"extensionPathInRepo,omitempty"`
	ExtensionRootURL    string `json:"extensionRootUrl,omitempty"`

	Sponsors     []string                 `json:"sponsors,omitempty"`
	Contributors []github.ContributorInfo `json:"contributors,omitempty"`
}

// Result is the outcome of one [Enricher.Run].
type Result struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"generated_at"`
	Duration  time.Duration    `json:"duration"`
	Entries   []*catalog.Entry `json:"entries"`
	Records   []*Record        `json:"records"`
	Stats     Stats            `json:"stats"`
}

// Stats summarizes a run.
type Stats struct {
	Entries      int `json:"entries"`
	Resolved     int `json:"maven_resolved"`
	Records      int `json:"records"`
	WithIssues   int `json:"with_issues"`
	WithMetadata int `json:"with_metadata"`
	WithImages   int `json:"with_images"`
	Duplicates   int `json:"duplicates"`
}

func summarize(entries []*catalog.Entry, records []*Record) Stats {
	s := Stats{Entries: len(entries), Records: len(records)}
	for _, e := range entries {
		if e.Maven != nil {
			s.Resolved++
		}
		if len(e.Duplicates) > 0 {
			s.Duplicates++
		}
	}
	for _, r := range records {
		if r.Issues != nil {
			s.WithIssues++
		}
		if r.ExtensionYamlURL != "" {
			s.WithMetadata++
		}
		if r.OwnerImageURL != "" || r.SocialImage != "" {
			s.WithImages++
		}
	}
	return s
}
