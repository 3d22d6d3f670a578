// Package buildinfo holds version details stamped in at link time:
//
//	go build -ldflags "-X github.com/holly-cummins/extensions.io/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/holly-cummins/extensions.io/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/holly-cummins/extensions.io/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/enricher
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the enricher to upstream APIs.
func UserAgent() string {
	return "extensions.io-enricher/" + Version
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
