package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/httputil"
	"github.com/holly-cummins/extensions.io/pkg/integrations"
)

// DefaultRawURL serves raw repository files.
const DefaultRawURL = "https://raw.githubusercontent.com"

// Client provides the GitHub lookups used during enrichment. GraphQL calls
// go through the embedded [GraphQLClient]; raw file downloads use plain
// HTTP.
//
// All methods are safe for concurrent use.
type Client struct {
	*GraphQLClient
	files  *integrations.Client
	rawURL string
	logger *log.Logger
}

// NewClient creates a GitHub client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	o := buildOptions(opts)
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	files := integrations.NewClient(nil, headers)
	if o.httpClient != nil {
		files.SetHTTPClient(o.httpClient)
	}
	return &Client{
		GraphQLClient: newGraphQLClient(token, o),
		files:         files,
		rawURL:        strings.TrimSuffix(o.rawURL, "/"),
		logger:        o.logger,
	}
}

// FetchFile returns the contents of path on the default branch. A missing
// file is reported as [integrations.ErrNotFound].
func (c *Client) FetchFile(ctx context.Context, repo RepoCoordinates, path string) (string, error) {
	if err := errs.ValidatePath(path); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s/%s/HEAD/%s", c.rawURL, repo.Owner, repo.Name, path)

	var text string
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		text, err = c.files.GetText(ctx, url)
		return err
	})
	if errors.Is(err, integrations.ErrNotFound) {
		return "", fmt.Errorf("%w: %s/%s", err, repo, path)
	}
	return text, err
}

const viewerQuery = `query {
  viewer {
    login
    name
    url
  }
}`

// Viewer returns the user the token belongs to.
func (c *Client) Viewer(ctx context.Context) (*User, error) {
	var data struct {
		Viewer *User `json:"viewer"`
	}
	if err := c.Decode(ctx, viewerQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.Viewer == nil {
		return nil, errs.New(errs.ErrCodeUnauthorized, "token is not associated with a user")
	}
	return data.Viewer, nil
}
