package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/holly-cummins/extensions.io/pkg/cache"
	"github.com/holly-cummins/extensions.io/pkg/catalog"
	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
	"github.com/holly-cummins/extensions.io/pkg/integrations/maven"
	"github.com/holly-cummins/extensions.io/pkg/labels"
	"github.com/holly-cummins/extensions.io/pkg/observability"
)

const day = 24 * time.Hour

// Cache names. They double as snapshot names in the store.
const (
	ImagesCache   = "github-api-for-images"
	MetadataCache = "github-api-for-extension-paths"
	IssuesCache   = "github-api-for-issue-count"
	HistoryCache  = "github-api-for-contributors"
)

// CacheNames lists every cache an [Enricher] persists.
var CacheNames = []string{ImagesCache, MetadataCache, IssuesCache, HistoryCache}

// Config tunes an [Enricher].
type Config struct {
	// Concurrency bounds how many entries are enriched at once.
	Concurrency int

	// LabelsRepository is the one repository whose extensions get issue
	// labels. Its bot configuration and extensions folder feed the label
	// resolver.
	LabelsRepository string
	BotConfigPath    string

	MetadataTTL time.Duration
	IssuesTTL   time.Duration
	ImagesTTL   time.Duration
	HistoryTTL  time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:      8,
		LabelsRepository: "https://github.com/quarkusio/quarkus",
		BotConfigPath:    ".github/quarkus-github-bot.yml",
		MetadataTTL:      10 * day,
		IssuesTTL:        day,
		ImagesTTL:        3 * day,
		HistoryTTL:       day,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.LabelsRepository == "" {
		c.LabelsRepository = d.LabelsRepository
	}
	if c.BotConfigPath == "" {
		c.BotConfigPath = d.BotConfigPath
	}
	for _, p := range []struct{ v, def *time.Duration }{
		{&c.MetadataTTL, &d.MetadataTTL},
		{&c.IssuesTTL, &d.IssuesTTL},
		{&c.ImagesTTL, &d.ImagesTTL},
		{&c.HistoryTTL, &d.HistoryTTL},
	} {
		if *p.v <= 0 {
			*p.v = *p.def
		}
	}
	return c
}

// MavenResolver resolves catalog coordinates. *maven.Client implements it.
type MavenResolver interface {
	Resolve(ctx context.Context, coordinate string) (*maven.Info, error)
}

// Deps are the collaborators of an [Enricher].
type Deps struct {
	GitHub *github.Client
	Maven  MavenResolver
	// Store persists the caches between runs. Nil means no persistence.
	Store  cache.Store
	Logger *log.Logger
}

// Enricher turns catalog entries into source-control records.
//
// It owns one cache per kind of lookup. The caches are loaded by
// [Enricher.Prepare] and written back by [Enricher.Finish]; within a run
// every lookup is made at most once per key.
type Enricher struct {
	cfg    Config
	gh     *github.Client
	maven  MavenResolver
	logger *log.Logger

	images   *cache.Cache[*github.ImageInfo]
	metadata *cache.Cache[*github.MetadataLocation]
	issues   *cache.Cache[github.IssueInfo]
	history  *cache.Cache[[]github.CommitAuthor]
	finder   *github.ContributorFinder

	labels   *labels.Resolver
	prepared bool
}

// New creates an Enricher with its own caches.
func New(cfg Config, deps Deps) *Enricher {
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	store := deps.Store
	if store == nil {
		store = cache.NullStore{}
	}
	opts := []cache.Option{cache.WithLogger(logger)}

	e := &Enricher{
		cfg:      cfg,
		gh:       deps.GitHub,
		maven:    deps.Maven,
		logger:   logger,
		images:   cache.New[*github.ImageInfo](ImagesCache, cfg.ImagesTTL, store, opts...),
		metadata: cache.New[*github.MetadataLocation](MetadataCache, cfg.MetadataTTL, store, opts...),
		issues:   cache.New[github.IssueInfo](IssuesCache, cfg.IssuesTTL, store, opts...),
		history:  cache.New[[]github.CommitAuthor](HistoryCache, cfg.HistoryTTL, store, opts...),
		labels:   labels.Empty(),
	}
	e.finder = github.NewContributorFinder(deps.GitHub, e.history)
	return e
}

type namedCache interface {
	Name() string
	Size() int
	Load(context.Context) error
	Persist(context.Context) error
	FlushAll()
}

func (e *Enricher) caches() []namedCache {
	return []namedCache{e.images, e.metadata, e.issues, e.history}
}

// CacheSizes returns the number of live entries per cache name.
func (e *Enricher) CacheSizes() map[string]int {
	out := make(map[string]int)
	for _, c := range e.caches() {
		out[c.Name()] = c.Size()
	}
	return out
}

// Prepare loads the persisted caches and builds the label resolver.
// Problems with either are logged and leave the enricher usable, except
// fatal errors such as a rejected token.
func (e *Enricher) Prepare(ctx context.Context) error {
	for _, c := range e.caches() {
		if err := c.Load(ctx); err != nil {
			e.logger.Warn("starting with an empty cache", "cache", c.Name(), "err", err)
		}
		e.logger.Info("ingested cache", "cache", c.Name(), "entries", c.Size())
	}

	resolver, err := e.loadLabels(ctx)
	if err != nil {
		if errs.IsFatal(err) {
			return err
		}
		e.logger.Warn("issue labels unavailable", "err", err)
		resolver = labels.Empty()
	}
	e.labels = resolver
	e.prepared = true
	return nil
}

func (e *Enricher) loadLabels(ctx context.Context) (*labels.Resolver, error) {
	repo, err := github.ParseRepoURL(e.cfg.LabelsRepository)
	if err != nil {
		return nil, err
	}
	text, err := e.gh.FetchFile(ctx, repo, e.cfg.BotConfigPath)
	if err != nil {
		return nil, err
	}
	tree, err := e.gh.FetchTreeListing(ctx, repo, labels.Root)
	if err != nil {
		return nil, err
	}

	var listing []labels.Directory
	for _, t := range tree {
		if !t.IsDir() {
			continue
		}
		d := labels.Directory{Name: t.Name}
		for _, child := range t.Entries {
			if child.IsDir() {
				d.Children = append(d.Children, child.Name)
			}
		}
		listing = append(listing, d)
	}

	r, err := labels.New([]byte(text), listing)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("label resolver ready", "rules", r.Rules(), "directories", len(listing))
	return r, nil
}

// Finish persists every cache. All caches are attempted even when one
// fails.
func (e *Enricher) Finish(ctx context.Context) error {
	var errList []error
	for _, c := range e.caches() {
		if err := c.Persist(ctx); err != nil {
			errList = append(errList, err)
			continue
		}
		e.logger.Info("persisted cache", "cache", c.Name(), "entries", c.Size())
	}
	return errors.Join(errList...)
}

// Reset drops the in-memory contents of every cache. Persisted snapshots
// are untouched; the next Run prepares again and reloads them.
func (e *Enricher) Reset() {
	for _, c := range e.caches() {
		c.FlushAll()
	}
	e.prepared = false
}

// Run resolves, normalizes and enriches entries, then persists the caches.
// The caches are persisted even when enrichment aborts.
func (e *Enricher) Run(ctx context.Context, entries []*catalog.Entry) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), StartedAt: start.UTC(), Entries: entries}

	if !e.prepared {
		if err := e.Prepare(ctx); err != nil {
			return nil, err
		}
	}
	if err := e.Resolve(ctx, entries); err != nil {
		return nil, err
	}

	records, err := e.EnrichAll(ctx, entries)
	if ferr := e.Finish(context.WithoutCancel(ctx)); ferr != nil {
		e.logger.Warn("could not persist caches", "err", ferr)
	}
	res.Duration = time.Since(start)
	observability.Enrich().OnRunComplete(ctx, len(records), res.Duration, err)
	if err != nil {
		return nil, err
	}

	res.Records = records
	res.Stats = summarize(entries, records)
	return res, nil
}
