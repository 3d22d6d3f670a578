package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/buildinfo"
	"github.com/holly-cummins/extensions.io/pkg/cache"
	"github.com/holly-cummins/extensions.io/pkg/catalog"
	"github.com/holly-cummins/extensions.io/pkg/config"
	"github.com/holly-cummins/extensions.io/pkg/httputil"
	"github.com/holly-cummins/extensions.io/pkg/integrations"
	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
	"github.com/holly-cummins/extensions.io/pkg/integrations/maven"
	"github.com/holly-cummins/extensions.io/pkg/session"
)

const (
	appName = "enricher"

	// Subdirectories of the cache directory.
	snapshotDir = "graphql"
	httpDir     = "http"

	httpTimeout = 30 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with every subcommand registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Enrich the Quarkus extension catalog with GitHub data",
		Long: `enricher reads the Quarkus extension catalog, resolves each extension's
Maven release, and looks up its GitHub repository: open issues, preview
images, where its quarkus-extension.yaml lives, and who maintains it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir/enricher/config.toml)")

	root.AddCommand(c.enrichCommand())
	root.AddCommand(c.duplicatesCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.githubCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cacheDir returns the configured cache directory, or
// $XDG_CACHE_HOME/enricher.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// openStore returns where lookup caches are persisted. The close function
// is always non-nil.
func (c *CLI) openStore(ctx context.Context, noCache bool) (cache.Store, func(), error) {
	nop := func() {}
	if noCache || c.cfg.Cache.Disabled {
		return cache.NullStore{}, nop, nil
	}
	if addr := c.cfg.Cache.RedisAddr; addr != "" {
		store, err := cache.DialRedis(ctx, addr, c.cfg.Cache.RedisPassword, c.cfg.Cache.RedisDB)
		if err != nil {
			return nil, nop, err
		}
		return store, func() { store.Close() }, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caches will not persist", "err", err)
		return cache.NullStore{}, nop, nil
	}
	store, err := cache.NewFileStore(filepath.Join(dir, snapshotDir))
	if err != nil {
		return nil, nop, err
	}
	return store, nop, nil
}

// githubToken prefers the configured token and falls back to the stored
// login.
func (c *CLI) githubToken(ctx context.Context) string {
	if c.cfg.GitHub.Token != "" {
		return c.cfg.GitHub.Token
	}
	store, err := session.NewCLIStore("")
	if err != nil {
		return ""
	}
	sess, err := store.Load(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.AccessToken
}

func (c *CLI) newGitHubClient(token string) *github.Client {
	gh := c.cfg.GitHub
	return github.NewClient(token,
		github.WithEndpoint(gh.Endpoint),
		github.WithRawURL(gh.RawURL),
		github.WithMaxConcurrency(gh.MaxConcurrency),
		github.WithRetry(gh.Retries, gh.RetryDelay),
		github.WithBreakers(httputil.NewBreakers(gh.BreakerThreshold, 0)),
		github.WithHTTPClient(httputil.NewHTTPClient(httpTimeout)),
		github.WithLogger(c.Logger),
	)
}

func (c *CLI) newMavenClient(noCache bool) *maven.Client {
	if noCache || c.cfg.Cache.Disabled || c.cfg.Maven.CacheTTL == 0 {
		return maven.NewClientWithCache(nil, c.cfg.Maven.SearchURL)
	}
	dir, err := c.cacheDir()
	if err != nil {
		return maven.NewClientWithCache(nil, c.cfg.Maven.SearchURL)
	}
	hc, err := httputil.NewCache(filepath.Join(dir, httpDir), c.cfg.Maven.CacheTTL)
	if err != nil {
		c.Logger.Warn("maven response cache unavailable", "err", err)
		return maven.NewClientWithCache(nil, c.cfg.Maven.SearchURL)
	}
	return maven.NewClientWithCache(hc.Namespace("maven:"), c.cfg.Maven.SearchURL)
}

// loadCatalog reads src as a local file when one exists and fetches it as
// a URL otherwise.
func (c *CLI) loadCatalog(ctx context.Context, src string) ([]*catalog.Entry, error) {
	if src == "" {
		src = c.cfg.Catalog.URL
	}
	if _, err := os.Stat(src); err == nil {
		return catalog.LoadFile(src)
	}
	entries, err := catalog.Fetch(ctx, integrations.NewClient(nil, nil), src)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	return entries, nil
}
