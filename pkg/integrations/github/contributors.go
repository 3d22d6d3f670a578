package github

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/holly-cummins/extensions.io/pkg/cache"
)

// Sponsor thresholds: a company sponsors a project when its employees
// wrote at least this share of the sampled commits, and at least
// MinSponsorCommits of them.
const (
	SponsorShare      = 0.25
	MinSponsorCommits = 3
	historyDepth      = 100
)

const historyQuery = `query($owner: String!, $name: String!, $path: String, $first: Int!) {
  repository(owner: $owner, name: $name) {
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: $first, path: $path) {
            nodes {
              author {
                name
                user { login url company }
              }
            }
          }
        }
      }
    }
  }
}`

// ContributorFinder derives contributors and sponsoring companies from a
// repository's recent commit history. Histories are cached per
// owner/repo:subpath.
type ContributorFinder struct {
	client  *Client
	history *cache.Cache[[]CommitAuthor]
	logger  *log.Logger
}

// NewContributorFinder creates a finder that stores histories in history.
func NewContributorFinder(client *Client, history *cache.Cache[[]CommitAuthor]) *ContributorFinder {
	return &ContributorFinder{client: client, history: history, logger: client.logger}
}

func historyKey(owner, repo, subpath string) string {
	return owner + "/" + repo + ":" + subpath
}

// History returns the authors of the most recent commits touching subpath
// on the default branch, newest first. An empty subpath means the whole
// repository.
func (f *ContributorFinder) History(ctx context.Context, owner, repo, subpath string) ([]CommitAuthor, error) {
	return f.history.GetOrSet(ctx, historyKey(owner, repo, subpath), func(ctx context.Context) ([]CommitAuthor, error) {
		return f.client.fetchHistory(ctx, RepoCoordinates{Owner: owner, Name: repo}, subpath)
	})
}

// Contributors returns commit authors ordered by contribution count. Errors
// are logged and yield an empty list.
func (f *ContributorFinder) Contributors(ctx context.Context, owner, repo, subpath string) []ContributorInfo {
	authors, err := f.History(ctx, owner, repo, subpath)
	if err != nil {
		f.logger.Warn("could not fetch contributors", "repo", owner+"/"+repo, "path", subpath, "err", err)
		return []ContributorInfo{}
	}
	return Tally(authors)
}

// Sponsors returns the companies that sponsor work on subpath. Errors are
// logged and yield an empty list.
func (f *ContributorFinder) Sponsors(ctx context.Context, owner, repo, subpath string) []string {
	authors, err := f.History(ctx, owner, repo, subpath)
	if err != nil {
		f.logger.Warn("could not fetch sponsors", "repo", owner+"/"+repo, "path", subpath, "err", err)
		return []string{}
	}
	return FindSponsors(authors)
}

// Tally groups commits by author, keyed by login when there is one and by
// name otherwise, and orders the result by contributions then name.
func Tally(authors []CommitAuthor) []ContributorInfo {
	index := make(map[string]int)
	out := []ContributorInfo{}
	for _, a := range authors {
		key := strings.ToLower(a.Name)
		if a.Login != "" {
			key = "@" + a.Login
		}
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			out[i].Contributions++
			continue
		}
		name := a.Name
		if name == "" {
			name = a.Login
		}
		index[key] = len(out)
		out = append(out, ContributorInfo{Name: name, Login: a.Login, Contributions: 1, URL: a.URL})
	}
	slices.SortStableFunc(out, func(a, b ContributorInfo) int {
		if c := cmp.Compare(b.Contributions, a.Contributions); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// FindSponsors returns the companies whose share of the commits reaches
// [SponsorShare] with at least [MinSponsorCommits] commits, largest first.
func FindSponsors(authors []CommitAuthor) []string {
	if len(authors) == 0 {
		return []string{}
	}
	counts := make(map[string]int)
	var names []string
	for _, a := range authors {
		company := NormalizeCompany(a.Company)
		if company == "" {
			continue
		}
		if counts[company] == 0 {
			names = append(names, company)
		}
		counts[company]++
	}

	sponsors := []string{}
	for _, name := range names {
		n := counts[name]
		if n >= MinSponsorCommits && float64(n)/float64(len(authors)) >= SponsorShare {
			sponsors = append(sponsors, name)
		}
	}
	slices.SortStableFunc(sponsors, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return sponsors
}

var companySuffixes = []string{", inc.", " inc.", ", inc", " inc", " corporation", " corp.", " ltd.", " ltd", " gmbh"}

// NormalizeCompany turns a free-text profile company into a display name:
// a leading "@" handle marker, surrounding space and common legal suffixes
// are dropped.
func NormalizeCompany(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
	lower := strings.ToLower(s)
	for _, suffix := range companySuffixes {
		if len(lower) == len(s) && strings.HasSuffix(lower, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}
	return s
}

func (c *Client) fetchHistory(ctx context.Context, repo RepoCoordinates, subpath string) ([]CommitAuthor, error) {
	vars := map[string]any{"owner": repo.Owner, "name": repo.Name, "first": historyDepth}
	if p := strings.TrimSuffix(subpath, "/"); p != "" {
		vars["path"] = p
	}

	var data struct {
		Repository *struct {
			DefaultBranchRef *struct {
				Target *struct {
					History *struct {
						Nodes []struct {
							Author *struct {
								Name *string `json:"name"`
								User *struct {
									Login   string  `json:"login"`
									URL     string  `json:"url"`
									Company *string `json:"company"`
								} `json:"user"`
							} `json:"author"`
						} `json:"nodes"`
					} `json:"history"`
				} `json:"target"`
			} `json:"defaultBranchRef"`
		} `json:"repository"`
	}
	if err := c.Decode(ctx, historyQuery, vars, &data); err != nil {
		return nil, err
	}

	authors := []CommitAuthor{}
	r := data.Repository
	if r == nil || r.DefaultBranchRef == nil || r.DefaultBranchRef.Target == nil || r.DefaultBranchRef.Target.History == nil {
		return authors, nil
	}
	for _, n := range r.DefaultBranchRef.Target.History.Nodes {
		if n.Author == nil {
			continue
		}
		var a CommitAuthor
		if n.Author.Name != nil {
			a.Name = *n.Author.Name
		}
		if u := n.Author.User; u != nil {
			a.Login, a.URL = u.Login, u.URL
			if u.Company != nil {
				a.Company = *u.Company
			}
		}
		authors = append(authors, a)
	}
	return authors, nil
}
