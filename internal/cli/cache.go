package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/cache"
	"github.com/holly-cummins/extensions.io/pkg/enrich"
	"github.com/holly-cummins/extensions.io/pkg/httputil"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the lookup caches",
	}
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	return cmd
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where caches are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := c.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeStore()
			fmt.Println(store)
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cache snapshot and cached Maven response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := c.openStore(ctx, false)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, name := range enrich.CacheNames {
				if err := store.Delete(ctx, name); err != nil {
					return fmt.Errorf("delete %s: %w", name, err)
				}
			}
			printSuccess("Cleared %d lookup caches", len(enrich.CacheNames))
			printDetail("Store: %s", store)

			dir, err := c.cacheDir()
			if err != nil {
				return nil
			}
			httpCache := filepath.Join(dir, httpDir)
			if _, err := os.Stat(httpCache); os.IsNotExist(err) {
				return nil
			}
			hc, err := httputil.NewCache(httpCache, 0)
			if err != nil {
				return err
			}
			n, err := hc.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached responses", n)
			printDetail("Directory: %s", httpCache)
			return nil
		},
	}
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many live and expired entries each cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := c.openStore(ctx, false)
			if err != nil {
				return err
			}
			defer closeStore()

			rows, err := cacheStats(ctx, store, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(newTable("cache", "live", "expired").Rows(rows...).Render())
			printDetail("Store: %s", store)
			return nil
		},
	}
}

type snapshotLoader interface {
	Load(ctx context.Context, name string) (*cache.Snapshot, error)
}

// cacheStats counts the entries of every enrichment snapshot.
func cacheStats(ctx context.Context, store snapshotLoader, now time.Time) ([][]string, error) {
	rows := make([][]string, 0, len(enrich.CacheNames))
	for _, name := range enrich.CacheNames {
		snap, err := store.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		live, expired := 0, 0
		if snap != nil {
			for _, e := range snap.Entries {
				if now.Before(e.ExpiresAt) {
					live++
				} else {
					expired++
				}
			}
		}
		rows = append(rows, []string{name, strconv.Itoa(live), strconv.Itoa(expired)})
	}
	return rows, nil
}
