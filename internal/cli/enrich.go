package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/enrich"
	"github.com/holly-cummins/extensions.io/pkg/io"
	"github.com/holly-cummins/extensions.io/pkg/observability"
)

type enrichOptions struct {
	catalog     string
	out         string
	mongoURI    string
	noCache     bool
	concurrency int
	summary     bool
}

func (c *CLI) enrichCommand() *cobra.Command {
	opts := enrichOptions{}
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich the catalog and write source-control records",
		Long: `Fetch the extension catalog, resolve each extension's Maven release, and
gather GitHub data for its repository. Lookups are cached between runs.`,
		Example: `  enricher enrich
  enricher enrich --catalog extensions.json --out records.json
  enricher enrich --no-cache --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEnrich(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "catalog URL or JSON file (default: registry.quarkus.io)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "records file (default: output.file)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "also upsert records into MongoDB at this URI")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "neither read nor persist lookup caches")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "entries enriched at once (default: enrich.concurrency)")
	cmd.Flags().BoolVar(&opts.summary, "summary", true, "print a coverage table when done")
	return cmd
}

// progressHooks counts finished entries for the spinner and forwards every
// event to the run statistics.
type progressHooks struct {
	*observability.Stats
	done    atomic.Int64
	total   int
	spinner *Spinner
}

func (p *progressHooks) OnEntryComplete(ctx context.Context, key string, d time.Duration, err error) {
	p.Stats.OnEntryComplete(ctx, key, d, err)
	n := p.done.Add(1)
	p.spinner.SetMessage("Enriching %d/%d entries", n, p.total)
}

func (c *CLI) runEnrich(ctx context.Context, opts enrichOptions) error {
	logger := loggerFromContext(ctx)
	cfg := c.cfg.EnrichConfig()
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	out := opts.out
	if out == "" {
		out = c.cfg.Output.File
	}
	mongoURI := opts.mongoURI
	if mongoURI == "" {
		mongoURI = c.cfg.Output.MongoURI
	}

	token := c.githubToken(ctx)
	if token == "" {
		return fmt.Errorf("no GitHub token: set GITHUB_TOKEN or run 'enricher github login'")
	}

	prog := newProgress(logger)
	entries, err := c.loadCatalog(ctx, opts.catalog)
	if err != nil {
		return err
	}
	prog.done("Loaded catalog", "entries", len(entries))

	store, closeStore, err := c.openStore(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	defer closeStore()
	logger.Debug("cache store", "location", store)

	spinner := newSpinnerWithContext(ctx, "Preparing")
	hooks := &progressHooks{Stats: observability.NewStats(), total: len(entries), spinner: spinner}
	observability.SetEnrichHooks(hooks)
	observability.SetCacheHooks(hooks.Stats)
	observability.SetHTTPHooks(hooks.Stats)
	defer observability.Reset()

	e := enrich.New(cfg, enrich.Deps{
		GitHub: c.newGitHubClient(token),
		Maven:  c.newMavenClient(opts.noCache),
		Store:  store,
		Logger: logger,
	})

	spinner.Start()
	res, err := e.Run(ctx, entries)
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := io.ExportResult(res, out); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	printSuccess("Enriched %d entries in %s", len(res.Entries), res.Duration.Round(time.Millisecond))
	printFile(out)

	if mongoURI != "" {
		if err := c.writeMongo(ctx, mongoURI, res); err != nil {
			return err
		}
	}

	if opts.summary {
		printNewline()
		fmt.Println(summaryTable(res.Stats, hooks.Snapshot()))
	}
	return nil
}

func (c *CLI) writeMongo(ctx context.Context, uri string, res *enrich.Result) error {
	sink, err := io.DialMongo(ctx, uri, c.cfg.Output.MongoDatabase, c.cfg.Output.MongoCollection)
	if err != nil {
		return err
	}
	defer sink.Close(context.WithoutCancel(ctx))

	n, err := sink.Write(ctx, res)
	if err != nil {
		return err
	}
	printSuccess("Upserted %d records into %s.%s", n, c.cfg.Output.MongoDatabase, c.cfg.Output.MongoCollection)
	return nil
}
