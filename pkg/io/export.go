package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/holly-cummins/extensions.io/pkg/enrich"
)

// WriteResult encodes a run result as indented JSON.
func WriteResult(res *enrich.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportResult writes a run result to path. The file is replaced
// atomically so readers never see a partial document.
func ExportResult(res *enrich.Result, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".records-*.json")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteResult(res, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
