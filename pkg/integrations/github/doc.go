// Package github provides the GitHub lookups used to enrich extension
// catalog entries.
//
// # Overview
//
// Everything except raw file downloads goes through GitHub's GraphQL API
// (https://api.github.com/graphql) via [GraphQLClient]:
//
//   - [Client.LocateMetadata]: find an extension's quarkus-extension.yaml
//   - [Client.CountIssues]: open issues, optionally narrowed by labels
//   - [Client.FetchImages]: owner avatar and custom social preview
//   - [Client.FetchTreeListing]: a two-level directory listing
//   - [ContributorFinder]: contributors and sponsoring companies
//
// # Usage
//
//	client := github.NewClient(os.Getenv("GITHUB_TOKEN"))
//
//	repo, err := github.ParseRepoURL("https://github.com/quarkiverse/quarkus-amazon-services")
//	if err != nil {
//	    return err
//	}
//	info, err := client.CountIssues(ctx, repo, nil, "https://github.com/quarkiverse/quarkus-amazon-services")
//
// # Failure handling
//
// Connection failures and 5xx responses are retried with backoff. Rate-limit
// responses are returned as [errors.RateLimitedError] straight away and are
// never retried. Repeated transport failures open a per-host circuit
// breaker; after that every call fails fast with an UNAVAILABLE error.
//
// In-flight requests are bounded by [WithMaxConcurrency].
//
// # Caching
//
// Lookups here are uncached, except for commit histories held by
// [ContributorFinder]. The enrich package wraps the other lookups in its own
// persistent caches.
//
// [errors.RateLimitedError]: github.com/holly-cummins/extensions.io/pkg/errors.RateLimitedError
package github
