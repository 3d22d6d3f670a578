package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
)

const (
	descriptorName = "quarkus-extension.yaml"
	metaInfPath    = "runtime/src/main/resources/META-INF"
	descriptorTail = metaInfPath + "/" + descriptorName
)

// Multi-extension repositories group modules under these folders.
var moduleFolders = []string{"extensions", "extensions-core", "extensions-jvm", "extensions-support"}

// MetadataCandidates returns the directories probed for an extension's
// descriptor, in order and without duplicates. Some multi-extension
// repositories name module folders after the artifact id with the
// repository name prefix removed.
func MetadataCandidates(repo RepoCoordinates, artifactID string) []string {
	short := strings.Replace(artifactID, repo.Name+"-", "", 1)

	all := []string{
		metaInfPath,
		artifactID + "/" + metaInfPath,
		short + "/" + metaInfPath,
	}
	for _, folder := range moduleFolders {
		all = append(all, folder+"/"+short+"/"+metaInfPath)
	}

	seen := make(map[string]bool, len(all))
	out := all[:0]
	for _, p := range all {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func metadataQuery(n int) string {
	var b strings.Builder
	b.WriteString("query($owner: String!, $name: String!")
	for i := range n {
		fmt.Fprintf(&b, ", $c%d: String!", i)
	}
	b.WriteString(") {\n  repository(owner: $owner, name: $name) {\n    defaultBranchRef { name }\n")
	for i := range n {
		fmt.Fprintf(&b, "    c%d: object(expression: $c%d) { ... on Tree { entries { path } } }\n", i, i)
	}
	b.WriteString("  }\n}")
	return b.String()
}

type treeObject struct {
	Entries []struct {
		Path string `json:"path"`
	} `json:"entries"`
}

// LocateMetadata finds the single quarkus-extension.yaml among the
// candidate directories. It returns nil when there is no match or more
// than one; an ambiguous result is never guessed at.
func (c *Client) LocateMetadata(ctx context.Context, repo RepoCoordinates, groupID, artifactID, scmURL string) (*MetadataLocation, error) {
	if err := errs.ValidateArtifactID(artifactID); err != nil {
		return nil, err
	}

	candidates := MetadataCandidates(repo, artifactID)
	vars := map[string]any{"owner": repo.Owner, "name": repo.Name}
	for i, p := range candidates {
		vars[fmt.Sprintf("c%d", i)] = "HEAD:" + p
	}

	var data struct {
		Repository map[string]json.RawMessage `json:"repository"`
	}
	if err := c.Decode(ctx, metadataQuery(len(candidates)), vars, &data); err != nil {
		return nil, err
	}
	if data.Repository == nil {
		c.logger.Warn("repository not visible, no metadata path", "repo", repo.String(), "artifact", groupID+":"+artifactID)
		return nil, nil
	}

	var branch struct {
		Name string `json:"name"`
	}
	if raw, ok := data.Repository["defaultBranchRef"]; ok {
		_ = json.Unmarshal(raw, &branch)
	}

	var found []string
	for i := range candidates {
		raw, ok := data.Repository[fmt.Sprintf("c%d", i)]
		if !ok {
			continue
		}
		var obj *treeObject
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			continue
		}
		for _, e := range obj.Entries {
			if strings.HasSuffix(e.Path, "/"+descriptorName) {
				found = append(found, e.Path)
			}
		}
	}

	if len(found) != 1 || branch.Name == "" {
		c.logger.Warn("could not identify the extension yaml path",
			"artifact", groupID+":"+artifactID, "matches", len(found), "found", found)
		return nil, nil
	}
	return newMetadataLocation(scmURL, branch.Name, found[0]), nil
}

func newMetadataLocation(scmURL, branch, descriptorPath string) *MetadataLocation {
	inRepo := strings.Replace(descriptorPath, descriptorTail, "", 1)
	base := strings.TrimSuffix(scmURL, "/") + "/blob/" + branch + "/"
	return &MetadataLocation{
		DescriptorURL: base + descriptorPath,
		PathInRepo:    inRepo,
		RootURL:       base + inRepo,
	}
}
