// Package artifact provides atomic per-run document storage.
//
// # Overview
//
// An artifact store holds named documents grouped by run ID. Writes are
// whole-document replacements and atomic from the reader's perspective: a
// concurrent reader observes either the previous or the new content, never
// a torn document. There are no partial updates; callers re-serialize the
// full document on every mutation.
//
// # Backends
//
//   - FSStore: local filesystem, temp-file + rename atomicity (default)
//   - MemoryStore: in-process map, used in tests
//   - S3Store: S3-compatible bucket, one object per document
//
// # Errors
//
//   - ErrNotFound: run or document does not exist (not retried)
//   - ErrUnavailable: substrate unreachable (transient, retryable)
//   - SerializationError: decodable-looking document failed to decode
//     (raised by callers that interpret content; fatal)
package artifact
