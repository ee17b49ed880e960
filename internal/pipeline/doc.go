// Package pipeline moves photos from the source library to the destination
// service through four stage workers that coordinate only through the
// artifact store: download, upload, album append, and local reclaim. A fifth
// worker periodically reports aggregate progress. The orchestrator shuts the
// whole pipeline down once every stage worker has been idle past the
// configured threshold.
package pipeline
