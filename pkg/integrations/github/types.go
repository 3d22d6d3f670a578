package github

// MetadataLocation is where an extension's quarkus-extension.yaml lives.
type MetadataLocation struct {
	DescriptorURL string `json:"extension_yaml_url"`
	PathInRepo    string `json:"extension_path_in_repo"`
	RootURL       string `json:"extension_root_url"`
}

// IssueInfo is the open issue count for a repository, optionally narrowed
// to a set of labels. URL is always set; Count is nil when unknown.
type IssueInfo struct {
	URL   string `json:"issues_url"`
	Count *int   `json:"issues,omitempty"`
}

// ImageInfo holds the preview images for a repository.
type ImageInfo struct {
	OwnerImageURL string `json:"owner_image_url,omitempty"`
	SocialImage   string `json:"social_image,omitempty"`
}

// ContributorInfo is one person's share of a repository's recent history.
type ContributorInfo struct {
	Name          string `json:"name"`
	Login         string `json:"login,omitempty"`
	Contributions int    `json:"contributions"`
	URL           string `json:"url,omitempty"`
}

// CommitAuthor is the author of a single commit.
type CommitAuthor struct {
	Name    string `json:"name"`
	Login   string `json:"login,omitempty"`
	URL     string `json:"url,omitempty"`
	Company string `json:"company,omitempty"`
}

// TreeEntry is one entry of a repository tree listing. Entries is only
// populated for directories listed with depth.
type TreeEntry struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"` // "tree" or "blob"
	Entries []TreeEntry `json:"entries,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e TreeEntry) IsDir() bool { return e.Type == "tree" }

// User is the authenticated GitHub user.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
}
