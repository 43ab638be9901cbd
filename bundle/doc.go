// Package bundle builds, persists and serves the per-terminology index
// bundles used at query time.
//
// A Bundle pairs a catalog with its lexical, fuzzy and (optional) vector
// indexes. Bundles are immutable: a rebuild produces a new Bundle that is
// installed with Registry.Swap while readers keep using the old one.
//
// Vectors are produced by a Builder, which embeds entries in batches on a
// worker pool with retry, exponential backoff and progress reporting, and
// normalizes every vector to unit length for cosine similarity search.
package bundle
