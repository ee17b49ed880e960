// Package icloud talks to the source photo library: a restartable listing of
// every photo plus byte downloads. Session material is pre-acquired and
// loaded from a file; the client never performs an authentication flow.
package icloud
