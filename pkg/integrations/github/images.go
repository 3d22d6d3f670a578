package github

import (
	"context"
	"strings"
)

const imagesQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    openGraphImageUrl
  }
  repositoryOwner(login: $owner) {
    avatarUrl
  }
}`

// IsCustomSocialImage reports whether a repository's Open Graph image was
// uploaded by its owner. Custom uploads are served from
// repository-images.githubusercontent.com; the generated default comes from
// opengraph.githubassets.com and only repeats the owner avatar.
func IsCustomSocialImage(u string) bool {
	return strings.Contains(u, "githubusercontent")
}

// FetchImages returns the owner avatar and, when customized, the social
// preview image. It returns nil if the repository is not visible.
func (c *Client) FetchImages(ctx context.Context, repo RepoCoordinates) (*ImageInfo, error) {
	var data struct {
		Repository *struct {
			OpenGraphImageURL *string `json:"openGraphImageUrl"`
		} `json:"repository"`
		RepositoryOwner *struct {
			AvatarURL *string `json:"avatarUrl"`
		} `json:"repositoryOwner"`
	}
	vars := map[string]any{"owner": repo.Owner, "name": repo.Name}
	if err := c.Decode(ctx, imagesQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Repository == nil {
		return nil, nil
	}

	info := &ImageInfo{}
	if data.RepositoryOwner != nil && data.RepositoryOwner.AvatarURL != nil {
		info.OwnerImageURL = *data.RepositoryOwner.AvatarURL
	}
	if og := data.Repository.OpenGraphImageURL; og != nil && IsCustomSocialImage(*og) {
		info.SocialImage = *og
	}
	return info, nil
}
