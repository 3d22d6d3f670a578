package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
)

const metaInf = "runtime/src/main/resources/META-INF"

func TestMetadataCandidates(t *testing.T) {
	tests := []struct {
		name     string
		repo     RepoCoordinates
		artifact string
		want     []string
	}{
		{
			name:     "artifact not prefixed by repo name",
			repo:     RepoCoordinates{Owner: "quarkiverse", Name: "quarkus-amazon-services"},
			artifact: "quarkus-amazon-s3",
			want: []string{
				metaInf,
				"quarkus-amazon-s3/" + metaInf,
				"extensions/quarkus-amazon-s3/" + metaInf,
				"extensions-core/quarkus-amazon-s3/" + metaInf,
				"extensions-jvm/quarkus-amazon-s3/" + metaInf,
				"extensions-support/quarkus-amazon-s3/" + metaInf,
			},
		},
		{
			name:     "repo name prefix stripped",
			repo:     RepoCoordinates{Owner: "apache", Name: "camel-quarkus"},
			artifact: "camel-quarkus-kafka",
			want: []string{
				metaInf,
				"camel-quarkus-kafka/" + metaInf,
				"kafka/" + metaInf,
				"extensions/kafka/" + metaInf,
				"extensions-core/kafka/" + metaInf,
				"extensions-jvm/kafka/" + metaInf,
				"extensions-support/kafka/" + metaInf,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MetadataCandidates(tt.repo, tt.artifact)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MetadataCandidates() =\n%v\nwant\n%v", got, tt.want)
			}
		})
	}
}

// treeResponder answers a metadata query from a map of directory to file
// names. Directories not in the map resolve to null, as GitHub does.
func treeResponder(branch string, trees map[string][]string) func(gqlRequest) any {
	return func(req gqlRequest) any {
		repo := map[string]any{"defaultBranchRef": map[string]any{"name": branch}}
		for k, v := range req.Variables {
			expr, ok := v.(string)
			if !ok || !strings.HasPrefix(expr, "HEAD:") {
				continue
			}
			dir := strings.TrimPrefix(expr, "HEAD:")
			files, ok := trees[dir]
			if !ok {
				repo[k] = nil
				continue
			}
			entries := []map[string]string{}
			for _, f := range files {
				entries = append(entries, map[string]string{"path": dir + "/" + f})
			}
			repo[k] = map[string]any{"entries": entries}
		}
		return data(map[string]any{"repository": repo})
	}
}

func TestLocateMetadata(t *testing.T) {
	tests := []struct {
		name     string
		repo     RepoCoordinates
		artifact string
		trees    map[string][]string
		want     *MetadataLocation
	}{
		{
			name:     "root module",
			repo:     RepoCoordinates{Owner: "quarkiverse", Name: "quarkus-foo"},
			artifact: "quarkus-foo",
			trees: map[string][]string{
				metaInf: {"quarkus-extension.yaml", "services"},
			},
			want: &MetadataLocation{
				DescriptorURL: "https://github.com/quarkiverse/quarkus-foo/blob/main/" + metaInf + "/quarkus-extension.yaml",
				PathInRepo:    "",
				RootURL:       "https://github.com/quarkiverse/quarkus-foo/blob/main/",
			},
		},
		{
			name:     "multi-extension subfolder",
			repo:     RepoCoordinates{Owner: "apache", Name: "camel-quarkus"},
			artifact: "camel-quarkus-kafka",
			trees: map[string][]string{
				"extensions/kafka/" + metaInf:     {"quarkus-extension.yaml"},
				"extensions-jvm/other/" + metaInf: {"quarkus-extension.yaml"},
			},
			want: &MetadataLocation{
				DescriptorURL: "https://github.com/apache/camel-quarkus/blob/main/extensions/kafka/" + metaInf + "/quarkus-extension.yaml",
				PathInRepo:    "extensions/kafka/",
				RootURL:       "https://github.com/apache/camel-quarkus/blob/main/extensions/kafka/",
			},
		},
		{
			name:     "ambiguous",
			repo:     RepoCoordinates{Owner: "quarkiverse", Name: "quarkus-foo"},
			artifact: "quarkus-foo",
			trees: map[string][]string{
				metaInf:                  {"quarkus-extension.yaml"},
				"quarkus-foo/" + metaInf: {"quarkus-extension.yaml"},
			},
			want: nil,
		},
		{
			name:     "no descriptor",
			repo:     RepoCoordinates{Owner: "quarkiverse", Name: "quarkus-foo"},
			artifact: "quarkus-foo",
			trees: map[string][]string{
				metaInf: {"services", "beans.xml"},
			},
			want: nil,
		},
		{
			name:     "nothing found",
			repo:     RepoCoordinates{Owner: "quarkiverse", Name: "quarkus-foo"},
			artifact: "quarkus-foo",
			trees:    map[string][]string{},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := fakeGitHub(t, treeResponder("main", tt.trees))
			scmURL := "https://github.com/" + tt.repo.String()

			got, err := c.LocateMetadata(context.Background(), tt.repo, "io.quarkiverse.foo", tt.artifact, scmURL)
			if err != nil {
				t.Fatalf("LocateMetadata() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LocateMetadata() = %+v, want %+v", got, tt.want)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("queries = %d, want one combined query", n)
			}
		})
	}
}

func TestLocateMetadata_UsesDefaultBranch(t *testing.T) {
	c, _ := fakeGitHub(t, treeResponder("development", map[string][]string{
		metaInf: {"quarkus-extension.yaml"},
	}))
	got, err := c.LocateMetadata(context.Background(), RepoCoordinates{Owner: "o", Name: "r"}, "g", "a", "https://github.com/o/r")
	if err != nil || got == nil {
		t.Fatalf("LocateMetadata() = %v, %v", got, err)
	}
	if !strings.Contains(got.DescriptorURL, "/blob/development/") {
		t.Errorf("DescriptorURL = %q", got.DescriptorURL)
	}
}

func TestLocateMetadata_RepositoryMissing(t *testing.T) {
	c, _ := fakeGitHub(t, func(gqlRequest) any {
		return map[string]any{
			"data":   map[string]any{"repository": nil},
			"errors": []map[string]any{{"type": "NOT_FOUND", "message": "Could not resolve to a Repository"}},
		}
	})
	got, err := c.LocateMetadata(context.Background(), RepoCoordinates{Owner: "o", Name: "gone"}, "g", "a", "https://github.com/o/gone")
	if err != nil || got != nil {
		t.Errorf("LocateMetadata() = %v, %v; want nil, nil", got, err)
	}
}

func TestLocateMetadata_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.LocateMetadata(context.Background(), RepoCoordinates{Owner: "o", Name: "r"}, "g", "a", "https://github.com/o/r")
	if !errs.Is(err, errs.ErrCodeRateLimited) {
		t.Errorf("err = %v, want RATE_LIMITED", err)
	}

	_, err = c.LocateMetadata(context.Background(), RepoCoordinates{Owner: "o", Name: "r"}, "g", "", "https://github.com/o/r")
	if err == nil {
		t.Error("expected error for empty artifact id")
	}
}

func TestMetadataQuery(t *testing.T) {
	q := metadataQuery(3)
	for _, want := range []string{"$c0: String!", "$c2: String!", "c1: object(expression: $c1)", "defaultBranchRef"} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	if strings.Contains(q, "$c3") {
		t.Error("query has too many candidates")
	}
}
