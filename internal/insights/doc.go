// ABOUTME: Package documentation for the insights entity layer.
// ABOUTME: Explains the run hierarchy, document model, and lifecycle rules.

// Package insights implements the investigation record layer: analyses,
// hypotheses, and issues persisted as whole YAML documents inside runs.
//
// # Run hierarchy
//
// Each experiment gets exactly one umbrella run, created lazily and
// discovered by the casefile.type=umbrella tag. Analysis runs nest under
// the umbrella and carry casefile.type=analysis. Hypotheses live in their
// analysis run; issues live in the umbrella run because they are
// experiment-scoped conclusions.
//
// # Document model
//
// One document per entity under the insights/ artifact prefix:
// analysis.yaml, hypothesis_<id>.yaml, issue_<id>.yaml, census.yaml.
// Every mutation is a read-modify-write of the whole document through an
// atomic artifact store, so readers never observe torn documents.
// Concurrent updates to the same entity resolve last-write-wins.
//
// # Lifecycle rules
//
// Analyses move between ACTIVE and COMPLETED freely; ARCHIVED is
// terminal. Hypotheses start TESTING and may conclude VALIDATED or
// REJECTED only once they hold evidence. Issues require evidence at
// creation, and setting a resolution moves them to RESOLVED. Evidence is
// append-only, and every evidence trace is linked to the owning run as a
// side effect of submission.
package insights
