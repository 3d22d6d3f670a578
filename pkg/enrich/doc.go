// Package enrich gathers source-control information for catalog entries.
//
// An [Enricher] runs in four steps, which [Enricher.Run] chains together:
//
//  1. [Enricher.Prepare] loads the persisted caches and builds the issue
//     label resolver from the main repository's bot configuration.
//  2. [Enricher.Resolve] looks up Maven coordinates and links duplicates.
//  3. [Enricher.EnrichAll] queries GitHub for every entry, a bounded number
//     of entries at a time.
//  4. [Enricher.Finish] writes the caches back to their store.
//
// Lookups that fail leave their record fields empty and are logged. A
// rejected token, an open circuit breaker or cancellation ends the run.
package enrich
