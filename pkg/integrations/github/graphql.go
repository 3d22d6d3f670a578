package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	errs "github.com/holly-cummins/extensions.io/pkg/errors"
	"github.com/holly-cummins/extensions.io/pkg/httputil"
	"github.com/holly-cummins/extensions.io/pkg/integrations"
)

const (
	// DefaultEndpoint is GitHub's GraphQL endpoint.
	DefaultEndpoint = "https://api.github.com/graphql"

	// DefaultMaxConcurrency bounds in-flight GraphQL requests per client.
	DefaultMaxConcurrency = 8
)

// GraphQLClient executes GraphQL documents against GitHub.
//
// Each call is an independent POST; there is no batching. Transport failures
// and 5xx responses are retried with backoff. Rate-limit responses are never
// retried: they surface as [errs.RateLimitedError] so the caller can give up
// on the field for this run.
type GraphQLClient struct {
	client   *integrations.Client
	endpoint string
	sem      *semaphore.Weighted
	breakers *httputil.Breakers
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a [GraphQLClient] or [Client].
type Option func(*options)

type options struct {
	endpoint       string
	rawURL         string
	maxConcurrency int
	attempts       int
	delay          time.Duration
	breakers       *httputil.Breakers
	logger         *log.Logger
	httpClient     *http.Client
}

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(url string) Option { return func(o *options) { o.endpoint = url } }

// WithRawURL overrides the base URL used for raw file downloads.
func WithRawURL(url string) Option { return func(o *options) { o.rawURL = url } }

// WithMaxConcurrency bounds the number of requests in flight.
func WithMaxConcurrency(n int) Option { return func(o *options) { o.maxConcurrency = n } }

// WithRetry sets the retry policy for transient failures.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *options) { o.attempts, o.delay = attempts, delay }
}

// WithBreakers shares a circuit breaker set between clients.
func WithBreakers(b *httputil.Breakers) Option { return func(o *options) { o.breakers = b } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(o *options) { o.httpClient = h } }

func buildOptions(opts []Option) options {
	o := options{
		endpoint:       DefaultEndpoint,
		rawURL:         DefaultRawURL,
		maxConcurrency: DefaultMaxConcurrency,
		attempts:       httputil.DefaultAttempts,
		delay:          httputil.DefaultDelay,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxConcurrency <= 0 {
		o.maxConcurrency = DefaultMaxConcurrency
	}
	if o.breakers == nil {
		o.breakers = httputil.NewBreakers(0, 0)
	}
	return o
}

// NewGraphQLClient creates a client authenticated with token. GitHub's
// GraphQL API rejects anonymous requests, so an empty token only works
// against test servers.
func NewGraphQLClient(token string, opts ...Option) *GraphQLClient {
	return newGraphQLClient(token, buildOptions(opts))
}

func newGraphQLClient(token string, o options) *GraphQLClient {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	client := integrations.NewClient(nil, headers)
	if o.httpClient != nil {
		client.SetHTTPClient(o.httpClient)
	}
	return &GraphQLClient{
		client:   client,
		endpoint: o.endpoint,
		sem:      semaphore.NewWeighted(int64(o.maxConcurrency)),
		breakers: o.breakers,
		attempts: o.attempts,
		delay:    o.delay,
		logger:   o.logger,
	}
}

// Response is a decoded GraphQL response body.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// HasData reports whether the response carries a non-null data object.
func (r *Response) HasData() bool {
	d := bytes.TrimSpace(r.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// GraphQLError is one entry of a response's errors array.
type GraphQLError struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

func (e GraphQLError) Error() string {
	if e.Type != "" {
		return e.Type + ": " + e.Message
	}
	return e.Message
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Query executes document with vars and returns the decoded body.
//
// Errors:
//   - [errs.RateLimitedError] when the request or cost budget is spent
//   - ErrCodeUnauthorized for a rejected token
//   - ErrCodeUnavailable when the host's circuit breaker is open
//   - ErrCodeNetwork after retries are exhausted
//   - ErrCodeGraphQL when data is null and errors are present
//
// Errors alongside non-null data are left in [Response.Errors].
func (c *GraphQLClient) Query(ctx context.Context, document string, vars map[string]any) (*Response, error) {
	body, err := json.Marshal(request{Query: document, Variables: vars})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode graphql request")
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	var resp *Response
	err = httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		resp, err = c.post(ctx, body)
		return err
	})
	if err != nil {
		if httputil.IsRetryable(err) {
			return nil, errs.Wrap(errs.ErrCodeNetwork, err, "github graphql request failed after %d attempts", c.attempts)
		}
		return nil, err
	}

	if rl := rateLimitFromErrors(resp.Errors); rl != nil {
		return nil, rl
	}
	if !resp.HasData() {
		if len(resp.Errors) > 0 {
			return nil, errs.Wrap(errs.ErrCodeGraphQL, joinErrors(resp.Errors), "github graphql query failed")
		}
		return nil, errs.New(errs.ErrCodeGraphQL, "github graphql response has no data")
	}
	if len(resp.Errors) > 0 {
		c.logger.Debug("partial graphql response", "errors", len(resp.Errors), "first", resp.Errors[0].Error())
	}
	return resp, nil
}

// Decode executes document and unmarshals the data object into v.
func (c *GraphQLClient) Decode(ctx context.Context, document string, vars map[string]any, v any) error {
	resp, err := c.Query(ctx, document, vars)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return errs.Wrap(errs.ErrCodeGraphQL, err, "decode graphql data")
	}
	return nil
}

// post sends one request under the endpoint's breaker. Only transport
// failures and 5xx responses count against the breaker.
func (c *GraphQLClient) post(ctx context.Context, body []byte) (*Response, error) {
	var out *Response
	err := c.breakers.Do(c.endpoint, func() (result, transport error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return err, nil
		}
		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err(), nil
			}
			return nil, httputil.Retryable(fmt.Errorf("%w: %v", integrations.ErrNetwork, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return nil, httputil.Retryable(fmt.Errorf("%w: status %d", integrations.ErrNetwork, resp.StatusCode))
		}
		if rl := rateLimitFromHeaders(resp); rl != nil {
			return rl, nil
		}
		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusUnauthorized:
			return errs.New(errs.ErrCodeUnauthorized, "github rejected the token (status 401)"), nil
		case http.StatusForbidden:
			return errs.New(errs.ErrCodeForbidden, "github denied the request (status 403)"), nil
		default:
			return errs.New(errs.ErrCodeNetwork, "unexpected status %d from github graphql", resp.StatusCode), nil
		}

		var r Response
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return errs.Wrap(errs.ErrCodeGraphQL, err, "decode graphql response"), nil
		}
		out = &r
		return nil, nil
	})
	if errors.Is(err, httputil.ErrUpstreamDown) {
		return nil, errs.Wrap(errs.ErrCodeUnavailable, err, "github graphql is unavailable")
	}
	return out, err
}

func rateLimitFromHeaders(resp *http.Response) *errs.RateLimitedError {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	exhausted := resp.Header.Get("X-RateLimit-Remaining") == "0"
	if resp.StatusCode == http.StatusForbidden && retryAfter == 0 && !exhausted {
		return nil
	}

	rl := &errs.RateLimitedError{RetryAfter: retryAfter, Message: "github graphql"}
	if reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil && reset > 0 {
		rl.ResetAt = time.Unix(reset, 0)
	}
	return rl
}

func rateLimitFromErrors(list []GraphQLError) *errs.RateLimitedError {
	for _, e := range list {
		if e.Type == "RATE_LIMITED" {
			return &errs.RateLimitedError{Message: e.Message}
		}
	}
	return nil
}

func joinErrors(list []GraphQLError) error {
	msgs := make([]string, len(list))
	for i, e := range list {
		msgs[i] = e.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}
