package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/holly-cummins/extensions.io/pkg/integrations"
)

// DefaultURL lists every extension known to the registry.
const DefaultURL = "https://registry.quarkus.io/client/extensions/all"

type document struct {
	Extensions []*Entry `json:"extensions"`
}

// Fetch downloads the catalog from url.
func Fetch(ctx context.Context, client *integrations.Client, url string) ([]*Entry, error) {
	var doc document
	err := client.Cached(ctx, "catalog:"+url, true, &doc, func() error {
		return client.Get(ctx, url, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", url, err)
	}
	return doc.Extensions, nil
}

// Read decodes a catalog. Both the registry document and a bare JSON
// array of entries are accepted.
func Read(r io.Reader) ([]*Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var entries []*Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		return entries, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Extensions, nil
}

// LoadFile reads a catalog from a local file.
func LoadFile(path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
