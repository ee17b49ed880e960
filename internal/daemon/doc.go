// Package daemon ties the migration pipeline, the artifact store, and the
// service clients into a single lifecycle with flock-based locking to prevent
// multiple concurrent instances from fighting over the same store and
// storage directory.
package daemon
