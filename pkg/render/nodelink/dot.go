package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
)

// Options configures duplicate diagrams.
type Options struct {
	// Detailed adds the version and release date to node labels.
	Detailed bool
}

// ToDOT draws every entry that has duplicates, grouped in one cluster per
// Maven artifact id. An edge runs from the older artifact to the newer
// one; pairs that cannot be ordered are joined by a dashed line.
func ToDOT(entries []*catalog.Entry, opts Options) string {
	groups := make(map[string][]*catalog.Entry)
	for _, e := range entries {
		if e.Maven != nil && len(e.Duplicates) > 0 {
			groups[e.Maven.ArtifactID] = append(groups[e.Maven.ArtifactID], e)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph duplicates {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	ids := slices.Sorted(maps.Keys(groups))
	for i, id := range ids {
		group := groups[id]
		slices.SortFunc(group, func(a, b *catalog.Entry) int { return cmp.Compare(a.Artifact, b.Artifact) })

		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", id)
		buf.WriteString("    style=dashed;\n")
		for _, e := range group {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", e.Artifact, fmtLabel(e, opts.Detailed))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, id := range ids {
		for _, e := range groups[id] {
			for _, d := range e.Duplicates {
				// Each pair appears on both entries; draw it once.
				switch d.Relationship {
				case catalog.Newer:
					fmt.Fprintf(&buf, "  %q -> %q;\n", e.Artifact, d.Artifact)
				case catalog.Different:
					if e.Artifact < d.Artifact {
						fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dashed];\n", e.Artifact, d.Artifact)
					}
				}
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(e *catalog.Entry, detailed bool) string {
	slug := e.Slug
	if slug == "" {
		slug = catalog.Slug(e.Artifact)
	}
	if !detailed {
		return slug
	}
	parts := []string{slug, e.Maven.Version}
	if ts := e.Maven.Timestamp; ts != nil {
		parts = append(parts, ts.Format("2006-01-02"))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders DOT source to SVG in-process.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// that scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
