// Package catalog models the extension registry catalog.
//
// Entries come from the registry ([Fetch]) or a local dump ([LoadFile]).
// After their Maven coordinates are resolved, [Normalize] fills in slugs,
// sortable names and platforms, and [FindDuplicates] links entries that
// publish the same artifact id under different coordinates.
package catalog
