package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/holly-cummins/extensions.io/pkg/enrich"
)

// ReadResult decodes a result written by [WriteResult].
//
// It returns an error if the JSON is malformed, a record has no key, or two
// records share a key.
func ReadResult(r io.Reader) (*enrich.Result, error) {
	var res enrich.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	seen := make(map[string]bool, len(res.Records))
	for i, rec := range res.Records {
		if rec == nil || rec.Key == "" {
			return nil, fmt.Errorf("record %d: missing key", i)
		}
		if seen[rec.Key] {
			return nil, fmt.Errorf("record %d: duplicate key %q", i, rec.Key)
		}
		seen[rec.Key] = true
	}
	return &res, nil
}

// ImportResult reads a result file from path.
func ImportResult(path string) (*enrich.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadResult(f)
}
