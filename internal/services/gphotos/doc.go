// Package gphotos talks to the destination photo service: raw byte uploads
// that yield opaque upload tokens, album lookup/creation, and batch album
// appends. The OAuth token is pre-acquired and loaded from a file; all calls
// share one rate limiter so the pipeline stays inside API quotas.
package gphotos
