package catalog

import (
	"strings"

	"github.com/holly-cummins/extensions.io/pkg/integrations/maven"
)

// Entry is one extension from the registry catalog.
//
// The registry supplies Artifact, Name, Description, Metadata and Origins.
// Maven is filled in by the resolve pass; Slug, SortableName and Platforms
// by [Normalize]; Duplicates by [FindDuplicates]. Entries are not modified
// after that.
type Entry struct {
	Artifact    string         `json:"artifact"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Origins     []string       `json:"origins,omitempty"`

	Maven        *maven.Info         `json:"maven,omitempty"`
	Slug         string              `json:"slug,omitempty"`
	SortableName string              `json:"sortableName,omitempty"`
	Platforms    []string            `json:"platforms,omitempty"`
	Duplicates   []DuplicateRelation `json:"duplicates,omitempty"`
}

func (e *Entry) str(key string) string {
	s, _ := e.Metadata[key].(string)
	return s
}

// SourceControl returns the raw scm-url metadata. It may hold several
// comma-separated parts; the first is the repository URL.
func (e *Entry) SourceControl() string { return e.str("scm-url") }

// SourceControlURL returns the first comma-separated part of
// [Entry.SourceControl], or "" if there is none.
func (e *Entry) SourceControlURL() string {
	url, _, _ := strings.Cut(e.SourceControl(), ",")
	return strings.TrimSpace(url)
}

// Icon returns the icon-url metadata.
func (e *Entry) Icon() string { return e.str("icon-url") }

// Unlisted reports whether the entry is hidden from listings. The registry
// sends either a boolean or the strings "true" and "false".
func (e *Entry) Unlisted() bool {
	switch v := e.Metadata["unlisted"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// Coordinates returns the group and artifact id of the entry's artifact
// string, without contacting Maven Central.
func (e *Entry) Coordinates() (groupID, artifactID string) {
	parts := strings.Split(e.Artifact, ":")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], parts[1]
}
