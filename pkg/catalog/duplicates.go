package catalog

import (
	"cmp"
	"slices"
	"time"
)

// Relationship describes another artifact relative to the entry that
// lists it as a duplicate.
type Relationship string

const (
	Newer     Relationship = "newer"
	Older     Relationship = "older"
	Different Relationship = "different"
)

// DuplicateRelation records another catalog entry published under the same
// artifact id.
type DuplicateRelation struct {
	Artifact     string       `json:"artifact"`
	GroupID      string       `json:"groupId"`
	Slug         string       `json:"slug"`
	Timestamp    *time.Time   `json:"timestamp,omitempty"`
	Relationship Relationship `json:"relationship"`
}

// FindDuplicates sets Duplicates on every entry that shares its Maven
// artifact id with another entry of a different artifact string. Entries
// without Maven info are skipped on both sides. Relations are ordered by
// artifact.
func FindDuplicates(entries []*Entry) {
	byID := make(map[string][]*Entry)
	for _, e := range entries {
		if e.Maven != nil {
			byID[e.Maven.ArtifactID] = append(byID[e.Maven.ArtifactID], e)
		}
	}

	for _, e := range entries {
		e.Duplicates = nil
		if e.Maven == nil {
			continue
		}
		for _, other := range byID[e.Maven.ArtifactID] {
			if other.Artifact == e.Artifact {
				continue
			}
			e.Duplicates = append(e.Duplicates, DuplicateRelation{
				Artifact:     other.Artifact,
				GroupID:      other.Maven.GroupID,
				Slug:         Slug(other.Artifact),
				Timestamp:    other.Maven.Timestamp,
				Relationship: relate(e.Maven.Timestamp, other.Maven.Timestamp),
			})
		}
		slices.SortFunc(e.Duplicates, func(a, b DuplicateRelation) int {
			return cmp.Compare(a.Artifact, b.Artifact)
		})
	}
}

func relate(own, other *time.Time) Relationship {
	switch {
	case own == nil || other == nil:
		return Different
	case other.After(*own):
		return Newer
	default:
		return Older
	}
}
