package maven

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/purl"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/httputil"
	"github.com/holly-cummins/extensions.io/pkg/integrations"
)

// DefaultSearchURL is the Maven Central Solr endpoint.
const DefaultSearchURL = "https://search.maven.org/solrsearch/select"

// Info is what Maven Central knows about one released artifact version.
//
// Timestamp is nil when Central has no record of the version; duplicates
// without a timestamp can only be described as "different".
type Info struct {
	GroupID    string     `json:"groupId"`
	ArtifactID string     `json:"artifactId"`
	Version    string     `json:"version"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	URL        string     `json:"url,omitempty"`
}

// Coordinate returns "groupId:artifactId".
func (i *Info) Coordinate() string {
	return i.GroupID + ":" + i.ArtifactID
}

// Client resolves catalog coordinates against Maven Central.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Maven Central client whose responses are cached on
// disk for cacheTTL.
func NewClient(cacheTTL time.Duration) (*Client, error) {
	cache, err := integrations.NewCacheWithNamespace("maven:", cacheTTL)
	if err != nil {
		return nil, err
	}
	return NewClientWithCache(cache, DefaultSearchURL), nil
}

// NewClientWithCache creates a client against searchURL. A nil cache
// disables response caching.
func NewClientWithCache(cache *httputil.Cache, searchURL string) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		baseURL: searchURL,
	}
}

// Resolve looks up a catalog coordinate. It accepts "g:a::jar:v", "g:a:v"
// and "pkg:maven/g/a@v" package URLs.
//
// A version Central does not know still resolves, with a nil Timestamp.
// Transport failures are returned as errors.
func (c *Client) Resolve(ctx context.Context, coordinate string) (*Info, error) {
	info, err := ParseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}

	var doc searchDoc
	err = c.Cached(ctx, info.GroupID+":"+info.ArtifactID+":"+info.Version, false, &doc, func() error {
		return c.fetch(ctx, info, &doc)
	})
	if err != nil && !errors.Is(err, integrations.ErrNotFound) {
		return nil, err
	}
	if doc.Timestamp > 0 {
		ts := time.UnixMilli(doc.Timestamp).UTC()
		info.Timestamp = &ts
	}
	info.URL = artifactURL(info)
	return info, nil
}

func (c *Client) fetch(ctx context.Context, info *Info, doc *searchDoc) error {
	query := fmt.Sprintf("g:%q AND a:%q AND v:%q", info.GroupID, info.ArtifactID, info.Version)
	url := fmt.Sprintf("%s?q=%s&core=gav&rows=1&wt=json", c.baseURL, integrations.URLEncode(query))

	var resp searchResponse
	if err := c.Get(ctx, url, &resp); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: maven artifact %s", err, info.Coordinate())
		}
		return err
	}
	if len(resp.Response.Docs) == 0 {
		return fmt.Errorf("%w: maven artifact %s:%s", integrations.ErrNotFound, info.Coordinate(), info.Version)
	}
	*doc = resp.Response.Docs[0]
	return nil
}

func artifactURL(info *Info) string {
	return fmt.Sprintf("https://central.sonatype.com/artifact/%s/%s/%s", info.GroupID, info.ArtifactID, info.Version)
}

// ParseCoordinate splits a catalog coordinate into group, artifact and
// version without contacting Maven Central.
func ParseCoordinate(coord string) (*Info, error) {
	coord = strings.TrimSpace(coord)
	if strings.HasPrefix(coord, "pkg:") {
		return parsePURL(coord)
	}

	parts := strings.Split(coord, ":")
	var info Info
	switch len(parts) {
	case 3:
		info = Info{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 5:
		// groupId:artifactId:classifier:type:version
		info = Info{GroupID: parts[0], ArtifactID: parts[1], Version: parts[4]}
	default:
		return nil, errs.New(errs.ErrCodeInvalidCoordinate, "invalid maven coordinate %q (expected groupId:artifactId::jar:version)", coord)
	}
	if info.GroupID == "" || info.Version == "" {
		return nil, errs.New(errs.ErrCodeInvalidCoordinate, "invalid maven coordinate %q", coord)
	}
	if err := errs.ValidateArtifactID(info.ArtifactID); err != nil {
		return nil, err
	}
	return &info, nil
}

func parsePURL(s string) (*Info, error) {
	p, err := purl.Parse(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCoordinate, err, "invalid package url %q", s)
	}
	if p.Type != "maven" {
		return nil, errs.New(errs.ErrCodeInvalidCoordinate, "unsupported purl type: %s", p.Type)
	}
	if p.Namespace == "" || p.Version == "" {
		return nil, errs.New(errs.ErrCodeInvalidCoordinate, "maven package url %q needs a namespace and a version", s)
	}
	if err := errs.ValidateArtifactID(p.Name); err != nil {
		return nil, err
	}
	return &Info{GroupID: p.Namespace, ArtifactID: p.Name, Version: p.Version}, nil
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	GroupID    string `json:"g"`
	ArtifactID string `json:"a"`
	Version    string `json:"v"`
	Timestamp  int64  `json:"timestamp"`
}
