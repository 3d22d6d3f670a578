package github

import (
	"errors"
	"regexp"
	"strings"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
)

// Regex patterns for GitHub resource validation.
var (
	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)

	repoURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)
)

// RepoCoordinates identifies a GitHub repository.
type RepoCoordinates struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r RepoCoordinates) String() string { return r.Owner + "/" + r.Name }

// ValidateOwner validates a GitHub username or organization name.
func ValidateOwner(owner string) error {
	if owner == "" {
		return errors.New("owner is required")
	}
	if !validOwner.MatchString(owner) {
		return errors.New("invalid owner format: must be 1-39 alphanumeric characters or hyphens, cannot start with hyphen")
	}
	return nil
}

// ValidateRepo validates a GitHub repository name.
func ValidateRepo(repo string) error {
	if repo == "" {
		return errors.New("repo is required")
	}
	if !validRepo.MatchString(repo) {
		return errors.New("invalid repo format: must be 1-100 alphanumeric characters, hyphens, underscores, or dots")
	}
	return nil
}

// ValidateRepoRef validates both owner and repo parameters.
func ValidateRepoRef(owner, repo string) error {
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	return ValidateRepo(repo)
}

// ParseRepoRef parses an "owner/repo" string and validates both parts.
func ParseRepoRef(ref string) (RepoCoordinates, error) {
	owner, repo, ok := strings.Cut(ref, "/")
	if !ok {
		return RepoCoordinates{}, errs.New(errs.ErrCodeInvalidInput, "invalid repo format: use owner/repo")
	}
	if err := ValidateRepoRef(owner, repo); err != nil {
		return RepoCoordinates{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid repo %q", ref)
	}
	return RepoCoordinates{Owner: owner, Name: repo}, nil
}

// IsRepoURL reports whether raw points at a github.com repository.
func IsRepoURL(raw string) bool {
	_, err := ParseRepoURL(raw)
	return err == nil
}

// ParseRepoURL extracts owner and name from a github.com repository URL.
// Trailing paths, query strings and a ".git" suffix are ignored.
func ParseRepoURL(raw string) (RepoCoordinates, error) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return RepoCoordinates{}, errs.New(errs.ErrCodeInvalidURL, "not a github repository URL: %q", raw)
	}
	if err := ValidateRepoRef(m[1], m[2]); err != nil {
		return RepoCoordinates{}, errs.Wrap(errs.ErrCodeInvalidURL, err, "invalid github repository URL %q", raw)
	}
	return RepoCoordinates{Owner: m[1], Name: m[2]}, nil
}
