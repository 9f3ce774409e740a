// Package runs provides the container substrate: a SQLite-backed registry
// of runs with experiment scoping, parent nesting, tags, and per-run trace
// links.
//
// A run is the addressing unit for artifact documents. The registry knows
// nothing about entity semantics; it only answers "which runs exist, how
// are they nested, what are they tagged, and which traces have they
// examined". Tag search is the primitive the hierarchy layer uses to locate
// the umbrella run, so the umbrella stays discoverable even if renamed.
//
// Trace links are a set per run with INSERT OR IGNORE semantics: linking is
// idempotent and safe to repeat from many short-lived CLI processes.
//
// The database uses WAL mode so polling readers proceed alongside
// short-lived writers.
package runs
