package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/enrich"
	"github.com/holly-cummins/extensions.io/pkg/io"
)

// recordDiff compares two runs record by record.
type recordDiff struct {
	Added   []string
	Removed []string
	Changed []string
	// Patches holds a unified diff of the JSON form per changed key.
	Patches map[string]string
}

func (d recordDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func (c *CLI) diffCommand() *cobra.Command {
	var context int
	cmd := &cobra.Command{
		Use:   "diff <old.json> <new.json>",
		Short: "Compare two records files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := io.ImportResult(args[0])
			if err != nil {
				return err
			}
			after, err := io.ImportResult(args[1])
			if err != nil {
				return err
			}

			d, err := diffResults(before, after, context)
			if err != nil {
				return err
			}
			if d.Empty() {
				printSuccess("No differences")
				return nil
			}
			for _, k := range d.Added {
				fmt.Println(styleAdded.Render("+ " + k))
			}
			for _, k := range d.Removed {
				fmt.Println(styleRemoved.Render("- " + k))
			}
			for _, k := range d.Changed {
				printNewline()
				fmt.Print(colorPatch(d.Patches[k]))
			}
			printNewline()
			printInfo("%d added, %d removed, %d changed", len(d.Added), len(d.Removed), len(d.Changed))
			return nil
		},
	}
	cmd.Flags().IntVarP(&context, "context", "U", 2, "lines of context around changes")
	return cmd
}

func diffResults(before, after *enrich.Result, context int) (recordDiff, error) {
	old := indexRecords(before.Records)
	cur := indexRecords(after.Records)
	d := recordDiff{Patches: make(map[string]string)}

	keys := slices.Sorted(maps.Keys(old))
	for k := range cur {
		if _, ok := old[k]; !ok {
			d.Added = append(d.Added, k)
		}
	}
	slices.Sort(d.Added)

	for _, k := range keys {
		next, ok := cur[k]
		if !ok {
			d.Removed = append(d.Removed, k)
			continue
		}
		a, err := json.MarshalIndent(old[k], "", "  ")
		if err != nil {
			return d, err
		}
		b, err := json.MarshalIndent(next, "", "  ")
		if err != nil {
			return d, err
		}
		if string(a) == string(b) {
			continue
		}
		patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(a)),
			B:        difflib.SplitLines(string(b)),
			FromFile: k + " (" + before.RunID + ")",
			ToFile:   k + " (" + after.RunID + ")",
			Context:  context,
		})
		if err != nil {
			return d, err
		}
		d.Changed = append(d.Changed, k)
		d.Patches[k] = patch
	}
	return d, nil
}

func indexRecords(records []*enrich.Record) map[string]*enrich.Record {
	m := make(map[string]*enrich.Record, len(records))
	for _, r := range records {
		m[r.Key] = r
	}
	return m
}

func colorPatch(patch string) string {
	lines := strings.SplitAfter(patch, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = StyleTitle.Render(strings.TrimSuffix(l, "\n")) + "\n"
		case strings.HasPrefix(l, "+"):
			lines[i] = styleAdded.Render(strings.TrimSuffix(l, "\n")) + "\n"
		case strings.HasPrefix(l, "-"):
			lines[i] = styleRemoved.Render(strings.TrimSuffix(l, "\n")) + "\n"
		}
	}
	return strings.Join(lines, "")
}
