package catalog

import (
	"strings"
)

const coreGroup = "io.quarkus"

// Slug returns the URL path segment for an artifact string. Core
// extensions use their artifact id alone; others are prefixed with their
// group id.
func Slug(artifact string) string {
	parts := strings.Split(artifact, ":")
	if len(parts) < 2 {
		return strings.ToLower(artifact)
	}
	group, id := parts[0], parts[1]
	if group == coreGroup {
		return strings.ToLower(id)
	}
	return strings.ToLower(group + "/" + id)
}

// SortableName folds a display name for ordering: lower case, with a
// leading "quarkus " dropped so that "Quarkus Kafka" sorts under k.
func SortableName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(s, "quarkus ")
}

// PlatformID strips the version from a platform origin coordinate.
func PlatformID(origin string) string {
	parts := strings.Split(origin, ":")
	if len(parts) < 2 {
		return origin
	}
	return parts[0] + ":" + parts[1]
}

// Normalize fills in the derived fields of every entry and replaces a
// string unlisted flag with a boolean.
func Normalize(entries []*Entry) {
	for _, e := range entries {
		e.Slug = Slug(e.Artifact)
		e.SortableName = SortableName(e.Name)
		e.Platforms = nil
		for _, o := range e.Origins {
			e.Platforms = append(e.Platforms, PlatformID(o))
		}
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		if _, ok := e.Metadata["unlisted"].(string); ok {
			e.Metadata["unlisted"] = e.Unlisted()
		}
	}
}
