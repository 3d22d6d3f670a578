package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holly-cummins/extensions.io/pkg/buildinfo"
	"github.com/holly-cummins/extensions.io/pkg/httputil"
)

func newTestCache(t *testing.T) *httputil.Cache {
	t.Helper()
	c, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	c := newTestCache(t)
	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(c, headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache != c {
		t.Error("NewClient() cache not set correctly")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := NewClient(newTestCache(t), nil)
	client.SetHTTPClient(server.Client())

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var custom, override string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		custom = r.Header.Get("X-Custom")
		override = r.Header.Get("X-Override")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(newTestCache(t), map[string]string{"X-Override": "default"})
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL,
		map[string]string{"X-Custom": "custom", "X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if custom != "custom" {
		t.Errorf("custom header = %q, want %q", custom, "custom")
	}
	if override != "overridden" {
		t.Errorf("header = %q, want %q", override, "overridden")
	}
}

func TestClientGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("triage:\n  rules: []\n"))
	}))
	defer server.Close()

	client := NewClient(nil, nil)
	client.SetHTTPClient(server.Client())

	text, err := client.GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetText() error: %v", err)
	}
	if text != "triage:\n  rules: []\n" {
		t.Errorf("GetText() = %q", text)
	}
}

func TestClientGetStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		want      error
		retryable bool
	}{
		{"not found", http.StatusNotFound, ErrNotFound, false},
		{"server error", http.StatusInternalServerError, ErrNetwork, true},
		{"too many requests", http.StatusTooManyRequests, ErrRateLimited, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			client := NewClient(nil, nil)
			client.SetHTTPClient(server.Client())

			var resp map[string]string
			err := client.Get(context.Background(), server.URL, &resp)
			if !errors.Is(err, tt.want) {
				t.Errorf("Get() error = %v, want %v", err, tt.want)
			}
			if httputil.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", httputil.IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestClientDoAppliesDefaultHeaders(t *testing.T) {
	var auth, accept, agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		accept = r.Header.Get("Accept")
		agent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewClient(nil, map[string]string{"Authorization": "Bearer t", "Accept": "application/json"})
	req, _ := http.NewRequest(http.MethodPost, server.URL, nil)
	req.Header.Set("Accept", "text/plain")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if auth != "Bearer t" {
		t.Errorf("Authorization = %q", auth)
	}
	if accept != "text/plain" {
		t.Errorf("request header overwritten by default: Accept = %q", accept)
	}
	if agent != buildinfo.UserAgent() {
		t.Errorf("User-Agent = %q, want %q", agent, buildinfo.UserAgent())
	}
}

func TestClientCached(t *testing.T) {
	client := NewClient(newTestCache(t), nil)

	type testData struct {
		Value string `json:"value"`
	}

	fetchCount := 0
	fetch := func(v *testData) func() error {
		return func() error {
			fetchCount++
			*v = testData{Value: "fetched"}
			return nil
		}
	}

	var first testData
	if err := client.Cached(context.Background(), "key", false, &first, fetch(&first)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	var second testData
	if err := client.Cached(context.Background(), "key", false, &second, fetch(&second)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if fetchCount != 1 {
		t.Errorf("fetch count = %d, want 1", fetchCount)
	}
	if second.Value != "fetched" {
		t.Errorf("cached value = %q", second.Value)
	}

	var third testData
	_ = client.Cached(context.Background(), "key", true, &third, fetch(&third))
	if fetchCount != 2 {
		t.Errorf("refresh did not bypass the cache")
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client := NewClient(newTestCache(t), nil)

	var value string
	fetchCount := 0
	fetch := func() error {
		fetchCount++
		return ErrNotFound
	}

	if err := client.Cached(context.Background(), "missing", false, &value, fetch); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cached() error = %v, want ErrNotFound", err)
	}
	_ = client.Cached(context.Background(), "missing", false, &value, fetch)
	if fetchCount != 2 {
		t.Errorf("failed fetch was cached: count = %d", fetchCount)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		want      error
		retryable bool
	}{
		{200, false, nil, false},
		{404, true, ErrNotFound, false},
		{429, true, ErrRateLimited, false},
		{500, true, ErrNetwork, true},
		{502, true, ErrNetwork, true},
		{503, true, ErrNetwork, true},
		{400, true, ErrNetwork, false},
		{403, true, ErrNetwork, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := checkStatus(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkStatus(%d) = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("checkStatus(%d) = %v, want %v", tt.code, err, tt.want)
			}
			if httputil.IsRetryable(err) != tt.retryable {
				t.Errorf("checkStatus(%d) retryable = %v, want %v", tt.code, !tt.retryable, tt.retryable)
			}
		})
	}
}

func TestURLEncode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"hello world", "hello+world"},
		{"area/kafka", "area%2Fkafka"},
		{`g:"io.quarkus" AND a:"quarkus-arc"`, "g%3A%22io.quarkus%22+AND+a%3A%22quarkus-arc%22"},
	}

	for _, tt := range tests {
		if got := URLEncode(tt.input); got != tt.want {
			t.Errorf("URLEncode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient()
	if client.Timeout != httpTimeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, httpTimeout)
	}
}
