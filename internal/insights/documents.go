// ABOUTME: YAML document persistence for insights entities.
// ABOUTME: One document per entity under the insights/ artifact prefix.

package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/casefile-io/casefile/internal/artifact"
)

const (
	analysisDoc      = "insights/analysis.yaml"
	censusDoc        = "insights/census.yaml"
	hypothesisPrefix = "insights/hypothesis_"
	issuePrefix      = "insights/issue_"
)

func hypothesisDoc(id string) string { return hypothesisPrefix + id + ".yaml" }
func issueDoc(id string) string      { return issuePrefix + id + ".yaml" }

// saveDoc marshals an entity and writes it as one atomic artifact.
func (r *Repository) saveDoc(ctx context.Context, runID, name string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return &artifact.SerializationError{RunID: runID, Name: name, Err: err}
	}
	if err := r.store.Put(ctx, runID, name, data); err != nil {
		return fmt.Errorf("writing %s in run %s: %w", name, runID, err)
	}
	return nil
}

// loadDoc reads and decodes one entity document. A missing document maps
// to the package's ErrNotFound; a document that exists but does not parse
// is a SerializationError, never silently skipped.
func (r *Repository) loadDoc(ctx context.Context, runID, name string, v any) error {
	data, err := r.store.Get(ctx, runID, name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return fmt.Errorf("%s in run %s: %w", name, runID, ErrNotFound)
		}
		return fmt.Errorf("reading %s in run %s: %w", name, runID, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &artifact.SerializationError{RunID: runID, Name: name, Err: err}
	}
	return nil
}

// newEntityID allocates a UUIDv4 id that no existing document in the run
// already uses.
func (r *Repository) newEntityID(ctx context.Context, runID string, docName func(string) string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		id := uuid.New().String()
		_, err := r.store.Get(ctx, runID, docName(id))
		if errors.Is(err, artifact.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking id collision in run %s: %w", runID, err)
		}
	}
	return "", fmt.Errorf("could not allocate a unique entity id in run %s", runID)
}
