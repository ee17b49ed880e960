// Package services defines shared utilities consumed by the pipeline stages
// and the external service clients.
//
// It owns the structured error markers plus the Wrap helper that keep failure
// classification (retry vs operator intervention) uniform across the icloud
// and gphotos clients.
package services
