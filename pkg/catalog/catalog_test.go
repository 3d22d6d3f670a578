package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/holly-cummins/extensions.io/pkg/integrations"
	"github.com/holly-cummins/extensions.io/pkg/integrations/maven"
)

func ts(ms int64) *time.Time {
	t := time.UnixMilli(ms)
	return &t
}

func entry(artifact, group, id string, stamp *time.Time) *Entry {
	return &Entry{
		Artifact: artifact,
		Maven:    &maven.Info{GroupID: group, ArtifactID: id, Timestamp: stamp},
	}
}

func TestFindDuplicates(t *testing.T) {
	old := entry("org.acme:widget::jar:1.0", "org.acme", "widget", ts(100))
	renamed := entry("io.acme:widget::jar:2.0", "io.acme", "widget", ts(200))
	undated := entry("com.other:widget::jar:1.0", "com.other", "widget", nil)
	unrelated := entry("org.acme:gadget::jar:1.0", "org.acme", "gadget", ts(50))
	unresolved := &Entry{Artifact: "net.widget:widget::jar:1.0"}

	FindDuplicates([]*Entry{old, renamed, undated, unrelated, unresolved})

	want := []DuplicateRelation{
		{Artifact: "com.other:widget::jar:1.0", GroupID: "com.other", Slug: "com.other/widget", Relationship: Different},
		{Artifact: "io.acme:widget::jar:2.0", GroupID: "io.acme", Slug: "io.acme/widget", Timestamp: ts(200), Relationship: Newer},
	}
	if !reflect.DeepEqual(old.Duplicates, want) {
		t.Errorf("old.Duplicates =\n%+v\nwant\n%+v", old.Duplicates, want)
	}

	if len(renamed.Duplicates) != 2 || renamed.Duplicates[1].Relationship != Older {
		t.Errorf("renamed.Duplicates = %+v", renamed.Duplicates)
	}
	for _, d := range undated.Duplicates {
		if d.Relationship != Different {
			t.Errorf("undated relation %s = %s, want different", d.Artifact, d.Relationship)
		}
	}
	if unrelated.Duplicates != nil || unresolved.Duplicates != nil {
		t.Error("entries without a twin should have no duplicates")
	}
}

func TestFindDuplicates_SameArtifactNotDuplicate(t *testing.T) {
	a := entry("org.acme:widget::jar:1.0", "org.acme", "widget", ts(1))
	b := entry("org.acme:widget::jar:1.0", "org.acme", "widget", ts(2))
	FindDuplicates([]*Entry{a, b})
	if a.Duplicates != nil || b.Duplicates != nil {
		t.Errorf("identical artifacts tagged: %+v %+v", a.Duplicates, b.Duplicates)
	}
}

func TestNormalize(t *testing.T) {
	entries := []*Entry{
		{
			Artifact: "io.quarkus:quarkus-kafka-client::jar:3.15.0",
			Name:     "Quarkus Apache Kafka Client",
			Origins:  []string{"io.quarkus.platform:quarkus-bom-quarkus-platform-descriptor:3.15.0:json:3.15.0"},
			Metadata: map[string]any{"unlisted": "TRUE", "icon-url": "https://example.com/icon.png"},
		},
		{
			Artifact: "io.quarkiverse.Amazon:quarkus-amazon-s3::jar:2.0",
			Name:     "Amazon S3",
			Metadata: map[string]any{"unlisted": false},
		},
		{Artifact: "org.acme:widget::jar:1.0", Name: "Widget"},
	}
	Normalize(entries)

	if got := entries[0].Slug; got != "quarkus-kafka-client" {
		t.Errorf("core slug = %q", got)
	}
	if got := entries[1].Slug; got != "io.quarkiverse.amazon/quarkus-amazon-s3" {
		t.Errorf("slug = %q", got)
	}
	if got := entries[0].SortableName; got != "apache kafka client" {
		t.Errorf("SortableName = %q", got)
	}
	if got := entries[0].Platforms; !reflect.DeepEqual(got, []string{"io.quarkus.platform:quarkus-bom-quarkus-platform-descriptor"}) {
		t.Errorf("Platforms = %v", got)
	}
	if v, ok := entries[0].Metadata["unlisted"].(bool); !ok || !v {
		t.Errorf("unlisted = %#v, want true", entries[0].Metadata["unlisted"])
	}
	if entries[1].Unlisted() || entries[2].Unlisted() {
		t.Error("Unlisted() = true for listed entries")
	}
	if entries[0].Icon() != "https://example.com/icon.png" {
		t.Errorf("Icon() = %q", entries[0].Icon())
	}
	if entries[2].Metadata == nil {
		t.Error("Metadata left nil")
	}
}

func TestEntry_SourceControl(t *testing.T) {
	e := &Entry{Metadata: map[string]any{"scm-url": "https://github.com/quarkusio/quarkus,extensions/kafka"}}
	if got := e.SourceControlURL(); got != "https://github.com/quarkusio/quarkus" {
		t.Errorf("SourceControlURL() = %q", got)
	}
	if got := (&Entry{}).SourceControlURL(); got != "" {
		t.Errorf("SourceControlURL() = %q, want empty", got)
	}
	g, a := (&Entry{Artifact: "org.acme:widget::jar:1.0"}).Coordinates()
	if g != "org.acme" || a != "widget" {
		t.Errorf("Coordinates() = %s, %s", g, a)
	}
}

const catalogJSON = `{"extensions":[
  {"artifact":"org.acme:widget::jar:1.0","name":"Widget","metadata":{"scm-url":"https://github.com/acme/widget"}},
  {"artifact":"io.acme:widget::jar:2.0","name":"Widget Next"}
]}`

func TestRead(t *testing.T) {
	for name, input := range map[string]string{
		"document": catalogJSON,
		"array":    `[{"artifact":"org.acme:widget::jar:1.0","name":"Widget"},{"artifact":"io.acme:widget::jar:2.0"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			entries, err := Read(strings.NewReader(input))
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if len(entries) != 2 || entries[0].Name != "Widget" {
				t.Errorf("entries = %+v", entries)
			}
		})
	}
	if _, err := Read(strings.NewReader("{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(catalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got := entries[0].SourceControl(); got != "https://github.com/acme/widget" {
		t.Errorf("SourceControl() = %q", got)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	entries, err := Fetch(context.Background(), integrations.NewClient(nil, nil), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(entries) != 2 || entries[1].Artifact != "io.acme:widget::jar:2.0" {
		t.Errorf("entries = %+v", entries)
	}
}
