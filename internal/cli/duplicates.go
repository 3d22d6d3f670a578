package cli

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
	"github.com/holly-cummins/extensions.io/pkg/enrich"
	"github.com/holly-cummins/extensions.io/pkg/render/nodelink"
)

const (
	formatText = "text"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

type duplicatesOptions struct {
	catalog  string
	format   string
	output   string
	detailed bool
	noCache  bool
}

func (c *CLI) duplicatesCommand() *cobra.Command {
	opts := duplicatesOptions{format: formatText}
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List extensions published under more than one group id",
		Long: `Resolve every catalog entry on Maven Central and report entries that share
an artifact id. Each duplicate is marked newer, older or different relative
to the entry that lists it.`,
		Example: `  enricher duplicates
  enricher duplicates --format svg -o duplicates.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains([]string{formatText, formatDOT, formatSVG}, opts.format) {
				return fmt.Errorf("unknown format %q (want text, dot or svg)", opts.format)
			}
			ctx := cmd.Context()

			entries, err := c.loadCatalog(ctx, opts.catalog)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d entries on Maven Central", len(entries)))
			spinner.Start()
			e := enrich.New(c.cfg.EnrichConfig(), enrich.Deps{
				GitHub: c.newGitHubClient(""),
				Maven:  c.newMavenClient(opts.noCache),
				Logger: loggerFromContext(ctx),
			})
			err = e.Resolve(ctx, entries)
			spinner.Stop()
			if err != nil {
				return err
			}

			var out []byte
			switch opts.format {
			case formatText:
				var b strings.Builder
				writeDuplicates(&b, entries)
				out = []byte(b.String())
			case formatDOT:
				out = []byte(nodelink.ToDOT(entries, nodelink.Options{Detailed: opts.detailed}))
			case formatSVG:
				if out, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(entries, nodelink.Options{Detailed: opts.detailed})); err != nil {
					return err
				}
			}

			if opts.output == "" {
				_, err := os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(opts.output, out, 0o644); err != nil {
				return err
			}
			printFile(opts.output)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "catalog URL or JSON file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, dot or svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show versions and release dates in diagrams")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "skip the Maven response cache")
	return cmd
}

// writeDuplicates lists entries with duplicates by slug, one relation per
// indented line.
func writeDuplicates(w io.Writer, entries []*catalog.Entry) {
	var dup []*catalog.Entry
	for _, e := range entries {
		if len(e.Duplicates) > 0 {
			dup = append(dup, e)
		}
	}
	slices.SortFunc(dup, func(a, b *catalog.Entry) int { return cmp.Compare(a.Slug, b.Slug) })

	if len(dup) == 0 {
		fmt.Fprintln(w, "no duplicates")
		return
	}
	for _, e := range dup {
		fmt.Fprintln(w, e.Slug)
		for _, d := range e.Duplicates {
			line := fmt.Sprintf("  %-9s %s", d.Relationship, d.Slug)
			if d.Timestamp != nil {
				line += " (" + d.Timestamp.Format("2006-01-02") + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
}
