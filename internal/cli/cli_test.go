package cli

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/holly-cummins/extensions.io/pkg/catalog"
)

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"enrich", "duplicates", "browse", "diff", "serve", "cache", "github", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestRootCommand_BadConfig(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"--config", "/does/not/exist.toml", "cache", "path"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("missing explicit config file should fail")
	}
}

func TestWriteDuplicates(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := []*catalog.Entry{
		{Slug: "org.b/x", Duplicates: []catalog.DuplicateRelation{{Slug: "org.a/x", Relationship: catalog.Older, Timestamp: &ts}}},
		{Slug: "org.a/x", Duplicates: []catalog.DuplicateRelation{{Slug: "org.b/x", Relationship: catalog.Newer}}},
		{Slug: "org.c/y"},
	}

	var b strings.Builder
	writeDuplicates(&b, entries)
	want := "org.a/x\n  newer     org.b/x\norg.b/x\n  older     org.a/x (2024-05-01)\n"
	if b.String() != want {
		t.Errorf("writeDuplicates() =\n%s\nwant\n%s", b.String(), want)
	}

	b.Reset()
	writeDuplicates(&b, entries[2:])
	if b.String() != "no duplicates\n" {
		t.Errorf("no duplicates output = %q", b.String())
	}
}
