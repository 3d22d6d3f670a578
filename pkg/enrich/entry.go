package enrich

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
	"github.com/holly-cummins/extensions.io/pkg/observability"
)

// Field names reported to [observability.EnrichHooks.OnFieldMissing].
const (
	FieldIssues   = "issues"
	FieldImages   = "images"
	FieldMetadata = "metadata"
)

// EnrichAll enriches entries concurrently and returns one record per entry
// that declares source control, in catalog order. The first fatal error
// cancels the remaining work and is returned alone.
func (e *Enricher) EnrichAll(ctx context.Context, entries []*catalog.Entry) ([]*Record, error) {
	out := make([]*Record, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, entry := range entries {
		g.Go(func() error {
			rec, err := e.EnrichEntry(gctx, entry)
			out[i] = rec
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(out))
	for _, r := range out {
		if r != nil {
			records = append(records, r)
		}
	}
	return records, nil
}

// EnrichEntry builds the record for one entry. It returns nil for an entry
// without source control, and a record holding only the key and URL for a
// repository not hosted on github.com.
//
// Failed lookups leave their fields empty. Only fatal errors are returned.
func (e *Enricher) EnrichEntry(ctx context.Context, entry *catalog.Entry) (*Record, error) {
	key := entry.SourceControl()
	scmURL := entry.SourceControlURL()
	if scmURL == "" {
		return nil, nil
	}

	hooks := observability.Enrich()
	hooks.OnEntryStart(ctx, key)
	start := time.Now()

	rec, err := e.enrich(ctx, entry, key, scmURL)
	hooks.OnEntryComplete(ctx, key, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Enricher) enrich(ctx context.Context, entry *catalog.Entry, key, scmURL string) (*Record, error) {
	rec := &Record{Key: key, URL: scmURL}
	repo, err := github.ParseRepoURL(scmURL)
	if err != nil {
		e.logger.Debug("not a github repository, keeping the url only", "url", scmURL)
		return rec, nil
	}
	rec.Project = repo.Name
	rec.Owner = repo.Owner

	groupID, artifactID := entry.Coordinates()
	if entry.Maven != nil {
		groupID, artifactID = entry.Maven.GroupID, entry.Maven.ArtifactID
	}
	if scmURL == e.cfg.LabelsRepository && artifactID != "" {
		rec.Labels = e.labels.Labels(artifactID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.fillIssues(gctx, rec, repo, key)
	})
	g.Go(func() error {
		return e.fillImages(gctx, rec, repo, key)
	})
	g.Go(func() error {
		if err := e.fillMetadata(gctx, rec, repo, key, groupID, artifactID); err != nil {
			return err
		}
		e.fillPeople(gctx, rec, repo)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rec, nil
}

// missing records a failed lookup. It returns err when the failure should
// end the run and nil otherwise.
func (e *Enricher) missing(ctx context.Context, key, field string, err error) error {
	if errs.IsFatal(err) {
		return err
	}
	e.logger.Warn("lookup failed", "key", key, "field", field, "err", err)
	observability.Enrich().OnFieldMissing(ctx, key, field, err)
	return nil
}

func (e *Enricher) fillIssues(ctx context.Context, rec *Record, repo github.RepoCoordinates, key string) error {
	info, err := e.issues.GetOrSet(ctx, github.IssuesKey(repo, rec.Labels), func(ctx context.Context) (github.IssueInfo, error) {
		return e.gh.CountIssues(ctx, repo, rec.Labels, rec.URL)
	})
	if err != nil {
		rec.IssuesURL = github.IssuesURL(rec.URL, rec.Labels)
		return e.missing(ctx, key, FieldIssues, err)
	}
	rec.IssuesURL = info.URL
	rec.Issues = info.Count
	return nil
}

func (e *Enricher) fillImages(ctx context.Context, rec *Record, repo github.RepoCoordinates, key string) error {
	info, err := e.images.GetOrSet(ctx, rec.URL, func(ctx context.Context) (*github.ImageInfo, error) {
		return e.gh.FetchImages(ctx, repo)
	})
	if err != nil {
		return e.missing(ctx, key, FieldImages, err)
	}
	if info != nil {
		rec.OwnerImageURL = info.OwnerImageURL
		rec.SocialImage = info.SocialImage
	}
	return nil
}

func (e *Enricher) fillMetadata(ctx context.Context, rec *Record, repo github.RepoCoordinates, key, groupID, artifactID string) error {
	if artifactID == "" {
		return nil
	}
	loc, err := e.metadata.GetOrSet(ctx, groupID+":"+artifactID, func(ctx context.Context) (*github.MetadataLocation, error) {
		return e.gh.LocateMetadata(ctx, repo, groupID, artifactID, rec.URL)
	})
	if err != nil {
		return e.missing(ctx, key, FieldMetadata, err)
	}
	if loc == nil {
		observability.Enrich().OnFieldMissing(ctx, key, FieldMetadata, nil)
		return nil
	}
	rec.ExtensionYamlURL = loc.DescriptorURL
	rec.ExtensionPathInRepo = loc.PathInRepo
	rec.ExtensionRootURL = loc.RootURL
	return nil
}

// fillPeople runs after the metadata lookup so that contributors and
// sponsors are scoped to the extension's folder when it is known.
func (e *Enricher) fillPeople(ctx context.Context, rec *Record, repo github.RepoCoordinates) {
	rec.Sponsors = e.finder.Sponsors(ctx, repo.Owner, repo.Name, rec.ExtensionPathInRepo)
	rec.Contributors = e.finder.Contributors(ctx, repo.Owner, repo.Name, rec.ExtensionPathInRepo)
}
