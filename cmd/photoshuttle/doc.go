// Command photoshuttle migrates a photo library from the source service to
// the destination service: run the pipeline in the foreground, inspect
// migration progress, and manage configuration.
package main
