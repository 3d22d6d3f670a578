// Package io reads and writes enrichment results.
//
// # Result files
//
// [ExportResult] writes an [enrich.Result] as one JSON document:
//
//	{
//	  "run_id": "0b8c…",
//	  "generated_at": "2026-10-15T09:00:00Z",
//	  "entries": [ … catalog entries with maven info and duplicates … ],
//	  "records": [
//	    {"key": "https://github.com/quarkiverse/quarkus-foo", "url": "…", "issues": 4, …}
//	  ]
//	}
//
// [ImportResult] reads it back and checks that record keys are unique.
//
// # MongoDB
//
// [MongoSink] upserts each record into a collection, keyed by its "key"
// field, so repeated runs update documents in place.
//
// [enrich.Result]: github.com/holly-cummins/extensions.io/pkg/enrich.Result
package io
