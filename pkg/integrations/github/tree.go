package github

import (
	"context"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
)

const treeQuery = `query($owner: String!, $name: String!, $expr: String!) {
  repository(owner: $owner, name: $name) {
    object(expression: $expr) {
      ... on Tree {
        entries {
          name
          type
          object {
            ... on Tree {
              entries {
                name
                type
              }
            }
          }
        }
      }
    }
  }
}`

type treeNode struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Object *struct {
		Entries []treeNode `json:"entries"`
	} `json:"object"`
}

// FetchTreeListing lists path on the default branch two levels deep:
// every entry of path, and for directories their own entries.
// A missing path yields an empty listing.
func (c *Client) FetchTreeListing(ctx context.Context, repo RepoCoordinates, path string) ([]TreeEntry, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}

	var data struct {
		Repository *struct {
			Object *struct {
				Entries []treeNode `json:"entries"`
			} `json:"object"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": repo.Owner, "name": repo.Name, "expr": "HEAD:" + path}
	if err := c.Decode(ctx, treeQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Repository == nil || data.Repository.Object == nil {
		return nil, nil
	}
	return toTreeEntries(data.Repository.Object.Entries), nil
}

func toTreeEntries(nodes []treeNode) []TreeEntry {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]TreeEntry, len(nodes))
	for i, n := range nodes {
		out[i] = TreeEntry{Name: n.Name, Type: n.Type}
		if n.Object != nil {
			out[i].Entries = toTreeEntries(n.Object.Entries)
		}
	}
	return out
}
