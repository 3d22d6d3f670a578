package enrich

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/holly-cummins/extensions.io/pkg/cache"
	"github.com/holly-cummins/extensions.io/pkg/catalog"
	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/integrations/github"
	"github.com/holly-cummins/extensions.io/pkg/integrations/maven"
	"github.com/holly-cummins/extensions.io/pkg/observability"
)

const descriptor = "runtime/src/main/resources/META-INF/quarkus-extension.yaml"

const botYAML = `triage:
  rules:
    - id: kafka
      labels: [area/kafka, area/messaging]
      directories: [extensions/kafka-client]
`

// fakeGitHub answers the GraphQL and raw-file requests an enrichment run
// makes and counts them by kind.
type fakeGitHub struct {
	mu     sync.Mutex
	counts map[string]int
	issues []map[string]any

	// fail makes every request of a kind answer with a GraphQL error.
	fail map[string]bool
	// status, when set, is returned for every request.
	status int
}

func (f *fakeGitHub) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[kind]
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	if r.Method == http.MethodGet {
		f.record("raw", nil)
		if strings.HasSuffix(r.URL.Path, "/quarkusio/quarkus/HEAD/.github/quarkus-github-bot.yml") {
			w.Write([]byte(botYAML))
			return
		}
		http.NotFound(w, r)
		return
	}

	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	kind := classify(req.Query)
	f.record(kind, req.Variables)
	if f.fail[kind] {
		json.NewEncoder(w).Encode(map[string]any{"data": nil, "errors": []any{map[string]any{"message": "boom"}}})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"data": respond(kind, req.Variables)})
}

func (f *fakeGitHub) record(kind string, vars map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[kind]++
	if kind == "issues" {
		f.issues = append(f.issues, vars)
	}
}

func classify(query string) string {
	switch {
	case strings.Contains(query, "openGraphImageUrl"):
		return "images"
	case strings.Contains(query, "totalCount"):
		return "issues"
	case strings.Contains(query, "history("):
		return "history"
	case strings.Contains(query, "$expr"):
		return "tree"
	case strings.Contains(query, "$c0"):
		return "metadata"
	}
	return "unknown"
}

func respond(kind string, vars map[string]any) any {
	owner, _ := vars["owner"].(string)
	switch kind {
	case "images":
		return map[string]any{
			"repository":      map[string]any{"openGraphImageUrl": "https://repository-images.githubusercontent.com/1/" + owner},
			"repositoryOwner": map[string]any{"avatarUrl": "https://avatars.githubusercontent.com/" + owner},
		}
	case "issues":
		n := 7
		if _, ok := vars["labels"]; ok {
			n = 3
		}
		return map[string]any{"repository": map[string]any{"issues": map[string]any{"totalCount": n}}}
	case "history":
		nodes := []any{}
		for range 4 {
			nodes = append(nodes, map[string]any{"author": map[string]any{
				"name": "Dev", "user": map[string]any{"login": "dev-" + owner, "url": "https://github.com/dev", "company": "@" + owner},
			}})
		}
		return map[string]any{"repository": map[string]any{"defaultBranchRef": map[string]any{
			"target": map[string]any{"history": map[string]any{"nodes": nodes}},
		}}}
	case "tree":
		return map[string]any{"repository": map[string]any{"object": map[string]any{"entries": []any{
			map[string]any{"name": "kafka-client", "type": "tree", "object": map[string]any{"entries": []any{
				map[string]any{"name": "runtime", "type": "tree"},
			}}},
			map[string]any{"name": "pom.xml", "type": "blob"},
		}}}}
	case "metadata":
		return map[string]any{"repository": map[string]any{
			"defaultBranchRef": map[string]any{"name": "main"},
			"c0":               map[string]any{"entries": []any{map[string]any{"path": descriptor}}},
		}}
	}
	return nil
}

type fakeMaven map[string]*maven.Info

func (m fakeMaven) Resolve(_ context.Context, coordinate string) (*maven.Info, error) {
	if info, ok := m[coordinate]; ok {
		return info, nil
	}
	return nil, errs.New(errs.ErrCodeNotFound, "no such artifact %s", coordinate)
}

func stamp(ms int64) *time.Time {
	t := time.UnixMilli(ms)
	return &t
}

var widgets = fakeMaven{
	"org.acme:widget::jar:1.0": {GroupID: "org.acme", ArtifactID: "widget", Version: "1.0", Timestamp: stamp(100)},
	"io.acme:widget::jar:2.0":  {GroupID: "io.acme", ArtifactID: "widget", Version: "2.0", Timestamp: stamp(200)},
	"io.quarkus:quarkus-kafka-client::jar:3.15.0": {GroupID: "io.quarkus", ArtifactID: "quarkus-kafka-client", Version: "3.15.0"},
}

func widgetCatalog() []*catalog.Entry {
	return []*catalog.Entry{
		{Artifact: "org.acme:widget::jar:1.0", Name: "Widget", Metadata: map[string]any{"scm-url": "https://github.com/acme/widget"}},
		{Artifact: "io.acme:widget::jar:2.0", Name: "Widget", Metadata: map[string]any{"scm-url": "https://github.com/acmeio/widget"}},
	}
}

func newTestEnricher(t *testing.T, gh *fakeGitHub, store cache.Store) *Enricher {
	t.Helper()
	if gh.counts == nil {
		gh.counts = make(map[string]int)
	}
	srv := httptest.NewServer(gh)
	t.Cleanup(srv.Close)

	logger := log.New(io.Discard)
	client := github.NewClient("test-token",
		github.WithEndpoint(srv.URL),
		github.WithRawURL(srv.URL),
		github.WithRetry(1, time.Millisecond),
		github.WithLogger(logger),
	)
	return New(Config{Concurrency: 2}, Deps{GitHub: client, Maven: widgets, Store: store, Logger: logger})
}

func TestRun_EndToEnd(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	gh := &fakeGitHub{}
	e := newTestEnricher(t, gh, store)
	entries := widgetCatalog()

	res, err := e.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(res.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(res.Records))
	}

	if d := entries[0].Duplicates; len(d) != 1 || d[0].Artifact != "io.acme:widget::jar:2.0" || d[0].Relationship != catalog.Newer {
		t.Errorf("first entry duplicates = %+v", d)
	}
	if d := entries[1].Duplicates; len(d) != 1 || d[0].Artifact != "org.acme:widget::jar:1.0" || d[0].Relationship != catalog.Older {
		t.Errorf("second entry duplicates = %+v", d)
	}

	rec := res.Records[0]
	if rec.Key != "https://github.com/acme/widget" || rec.Owner != "acme" || rec.Project != "widget" {
		t.Errorf("record identity = %+v", rec)
	}
	if rec.Issues == nil || *rec.Issues != 7 || rec.IssuesURL != "https://github.com/acme/widget/issues" {
		t.Errorf("issues = %v %q", rec.Issues, rec.IssuesURL)
	}
	if rec.SocialImage != "https://repository-images.githubusercontent.com/1/acme" || rec.OwnerImageURL == "" {
		t.Errorf("images = %q %q", rec.OwnerImageURL, rec.SocialImage)
	}
	if rec.ExtensionYamlURL != "https://github.com/acme/widget/blob/main/"+descriptor {
		t.Errorf("ExtensionYamlURL = %q", rec.ExtensionYamlURL)
	}
	if !reflect.DeepEqual(rec.Sponsors, []string{"acme"}) || len(rec.Contributors) != 1 {
		t.Errorf("people = %v %+v", rec.Sponsors, rec.Contributors)
	}
	if res.Stats.Records != 2 || res.Stats.Duplicates != 2 || res.Stats.WithIssues != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}

	for name, want := range map[string][]string{
		IssuesCache: {"acme-widget", "acmeio-widget"},
		ImagesCache: {"https://github.com/acme/widget", "https://github.com/acmeio/widget"},
	} {
		snap, err := store.Load(context.Background(), name)
		if err != nil || snap == nil {
			t.Fatalf("Load(%s) = %v, %v", name, snap, err)
		}
		for _, key := range want {
			if _, ok := snap.Entries[key]; !ok {
				t.Errorf("persisted %s lacks %q", name, key)
			}
		}
	}
}

func TestRun_ReusesPersistedCaches(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	first := &fakeGitHub{}
	if _, err := newTestEnricher(t, first, store).Run(context.Background(), widgetCatalog()); err != nil {
		t.Fatal(err)
	}

	second := &fakeGitHub{}
	res, err := newTestEnricher(t, second, store).Run(context.Background(), widgetCatalog())
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{"issues", "images", "metadata", "history"} {
		if n := second.count(kind); n != 0 {
			t.Errorf("second run made %d %s queries, want 0", n, kind)
		}
	}
	if res.Records[1].Issues == nil || *res.Records[1].Issues != 7 {
		t.Errorf("cached issues = %v", res.Records[1].Issues)
	}
}

func TestEnrichEntry_Labels(t *testing.T) {
	gh := &fakeGitHub{}
	e := newTestEnricher(t, gh, nil)
	ctx := context.Background()
	if err := e.Prepare(ctx); err != nil {
		t.Fatal(err)
	}

	entry := &catalog.Entry{
		Artifact: "io.quarkus:quarkus-kafka-client::jar:3.15.0",
		Metadata: map[string]any{"scm-url": "https://github.com/quarkusio/quarkus"},
	}
	rec, err := e.EnrichEntry(ctx, entry)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rec.Labels, []string{"area/kafka", "area/messaging"}) {
		t.Errorf("Labels = %v", rec.Labels)
	}
	if rec.Issues == nil || *rec.Issues != 3 {
		t.Errorf("Issues = %v, want the labelled count", rec.Issues)
	}
	want := "https://github.com/quarkusio/quarkus/issues?q=is%3Aopen+is%3Aissue+label%3Aarea%2Fkafka,area%2Fmessaging"
	if rec.IssuesURL != want {
		t.Errorf("IssuesURL = %q", rec.IssuesURL)
	}

	// The same artifact in another repository gets no labels.
	entry.Metadata["scm-url"] = "https://github.com/quarkiverse/quarkus-kafka-client"
	rec, err = e.EnrichEntry(ctx, entry)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Labels != nil {
		t.Errorf("Labels = %v, want none", rec.Labels)
	}
}

func TestEnrichEntry_WithoutGitHub(t *testing.T) {
	gh := &fakeGitHub{}
	e := newTestEnricher(t, gh, nil)
	ctx := context.Background()

	rec, err := e.EnrichEntry(ctx, &catalog.Entry{Artifact: "org.acme:widget::jar:1.0"})
	if err != nil || rec != nil {
		t.Errorf("no scm: EnrichEntry() = %+v, %v; want nil, nil", rec, err)
	}

	rec, err = e.EnrichEntry(ctx, &catalog.Entry{
		Artifact: "org.acme:widget::jar:1.0",
		Metadata: map[string]any{"scm-url": "https://gitlab.com/acme/widget,extra"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := &Record{Key: "https://gitlab.com/acme/widget,extra", URL: "https://gitlab.com/acme/widget"}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("EnrichEntry() = %+v, want %+v", rec, want)
	}
	if n := gh.count("issues") + gh.count("images"); n != 0 {
		t.Errorf("made %d queries for a non-github repository", n)
	}
}

func TestEnrichEntry_PartialFailure(t *testing.T) {
	stats := observability.NewStats()
	observability.SetEnrichHooks(stats)
	t.Cleanup(observability.Reset)

	gh := &fakeGitHub{fail: map[string]bool{"issues": true}}
	e := newTestEnricher(t, gh, nil)
	ctx := context.Background()

	entries := widgetCatalog()
	records, err := e.EnrichAll(ctx, entries)
	if err != nil {
		t.Fatalf("EnrichAll() error: %v", err)
	}
	for _, rec := range records {
		if rec.Issues != nil {
			t.Errorf("Issues = %d, want none", *rec.Issues)
		}
		if rec.IssuesURL != rec.URL+"/issues" {
			t.Errorf("IssuesURL = %q", rec.IssuesURL)
		}
		if rec.OwnerImageURL == "" {
			t.Error("images missing after an unrelated failure")
		}
	}
	if got := stats.Snapshot().Missing[FieldIssues]; got != 2 {
		t.Errorf("missing issues = %d, want 2", got)
	}

	// Failures are not cached.
	e.EnrichAll(ctx, entries)
	if n := gh.count("issues"); n != 4 {
		t.Errorf("issue queries = %d, want 4", n)
	}
}

func TestRun_FatalError(t *testing.T) {
	gh := &fakeGitHub{status: http.StatusUnauthorized}
	e := newTestEnricher(t, gh, nil)

	_, err := e.Run(context.Background(), widgetCatalog())
	if !errs.Is(err, errs.ErrCodeUnauthorized) {
		t.Fatalf("Run() error = %v, want UNAUTHORIZED", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	e := newTestEnricher(t, &fakeGitHub{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Run(ctx, widgetCatalog()); !errs.IsFatal(err) {
		t.Errorf("Run() error = %v, want a fatal error", err)
	}
}

func TestReset(t *testing.T) {
	e := newTestEnricher(t, &fakeGitHub{}, nil)
	if _, err := e.Run(context.Background(), widgetCatalog()); err != nil {
		t.Fatal(err)
	}
	if e.CacheSizes()[ImagesCache] != 2 {
		t.Fatalf("sizes = %v", e.CacheSizes())
	}
	e.Reset()
	for name, n := range e.CacheSizes() {
		if n != 0 {
			t.Errorf("%s holds %d entries after Reset", name, n)
		}
	}
}

func TestReset_KeepsPersistedEntries(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEnricher(t, &fakeGitHub{}, store)
	if _, err := e.Run(ctx, widgetCatalog()); err != nil {
		t.Fatal(err)
	}

	e.Reset()
	if _, err := e.Run(ctx, widgetCatalog()[:1]); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Load(ctx, ImagesCache)
	if err != nil || snap == nil {
		t.Fatalf("images snapshot = %v, %v", snap, err)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("images snapshot holds %d entries after Reset and a one-entry run, want 2", len(snap.Entries))
	}
}

func TestConfig_Defaults(t *testing.T) {
	got := Config{Concurrency: 3}.withDefaults()
	if got.Concurrency != 3 || got.MetadataTTL != 10*day || got.ImagesTTL != 3*day || got.IssuesTTL != day {
		t.Errorf("withDefaults() = %+v", got)
	}
	if got.LabelsRepository != "https://github.com/quarkusio/quarkus" {
		t.Errorf("LabelsRepository = %q", got.LabelsRepository)
	}
}
