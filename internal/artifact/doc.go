// Package artifact persists the migration state of every photo in a single
// SQLite table. The table is the only coordination channel between pipeline
// stages: each stage reads records matching its predicate and advances them
// by one flag. Records are never deleted; a fully reclaimed row is the
// permanent completion record for its photo.
package artifact
