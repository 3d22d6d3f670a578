// Package labels maps extensions that live in the main Quarkus repository
// to the GitHub issue labels that track them.
//
// The mapping comes from the triage rules of the repository's issue bot
// (.github/quarkus-github-bot.yml) and a listing of the extensions folder.
// An artifact is first placed in a directory of that listing, then every
// triage rule that covers the directory contributes its labels.
package labels

import (
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Root is the folder of the main repository that holds extension modules.
const Root = "extensions"

// Directory is one top-level folder under [Root] and the names of its
// subfolders.
type Directory struct {
	Name     string
	Children []string
}

// Rule is a triage rule from the bot configuration.
type Rule struct {
	ID          string   `yaml:"id"`
	Labels      []string `yaml:"labels"`
	Directories []string `yaml:"directories"`
}

type botConfig struct {
	Triage struct {
		Rules []Rule `yaml:"rules"`
	} `yaml:"triage"`
}

// Resolver answers label lookups. It is read-only after construction and
// safe for concurrent use.
type Resolver struct {
	rules   []Rule
	listing []Directory
}

// New parses the bot configuration and pairs it with the directory listing.
// Empty configuration text yields a resolver that never matches.
func New(config []byte, listing []Directory) (*Resolver, error) {
	r := &Resolver{listing: listing}
	if len(strings.TrimSpace(string(config))) == 0 {
		return r, nil
	}
	var cfg botConfig
	if err := yaml.Unmarshal(config, &cfg); err != nil {
		return nil, err
	}
	r.rules = cfg.Triage.Rules
	return r, nil
}

// Empty returns a resolver that never matches.
func Empty() *Resolver { return &Resolver{} }

// Rules returns the number of triage rules loaded.
func (r *Resolver) Rules() int { return len(r.rules) }

// Directory returns the folder an artifact lives in, such as
// "extensions/kafka-client" or "extensions/vertx-http/runtime", or "" when
// the listing has no match.
func (r *Resolver) Directory(artifactID string) string {
	short := strings.TrimSuffix(artifactID, "-deployment")
	short = strings.TrimPrefix(short, "quarkus-")
	if short == "" {
		return ""
	}
	for _, d := range r.listing {
		if d.Name == short {
			return Root + "/" + short
		}
	}
	for _, d := range r.listing {
		if slices.Contains(d.Children, short) {
			return Root + "/" + d.Name + "/" + short
		}
	}
	return ""
}

// Labels returns the labels of every rule covering the artifact's
// directory, in rule order and without duplicates. It returns nil when
// nothing applies.
func (r *Resolver) Labels(artifactID string) []string {
	dir := r.Directory(artifactID)
	if dir == "" {
		return nil
	}
	var out []string
	for _, rule := range r.rules {
		if !rule.covers(dir) {
			continue
		}
		for _, l := range rule.Labels {
			if !slices.Contains(out, l) {
				out = append(out, l)
			}
		}
	}
	return out
}

// Func returns Labels as a plain function.
func (r *Resolver) Func() func(string) []string { return r.Labels }

func (rule Rule) covers(dir string) bool {
	for _, d := range rule.Directories {
		d = strings.TrimSuffix(d, "/")
		if d == "" {
			continue
		}
		if dir == d || strings.HasPrefix(dir, d+"/") {
			return true
		}
	}
	return false
}
