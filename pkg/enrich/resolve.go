package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
)

// Resolve looks up every entry's Maven coordinates, then normalizes the
// catalog and links duplicates. An entry whose lookup fails keeps a nil
// Maven field. Only cancellation stops the pass.
func (e *Enricher) Resolve(ctx context.Context, entries []*catalog.Entry) error {
	if e.maven != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Concurrency)
		for _, entry := range entries {
			if entry.Artifact == "" {
				continue
			}
			g.Go(func() error {
				info, err := e.maven.Resolve(gctx, entry.Artifact)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					e.logger.Warn("could not resolve maven coordinates", "artifact", entry.Artifact, "err", err)
					return nil
				}
				entry.Maven = info
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	catalog.Normalize(entries)
	catalog.FindDuplicates(entries)
	return nil
}
