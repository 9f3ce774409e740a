// ABOUTME: Umbrella and analysis run management per experiment.
// ABOUTME: One lazily created umbrella run per experiment; analyses nest under it.

package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casefile-io/casefile/internal/runs"
)

// Tag keys and values that mark runs managed by this subsystem. Runs
// without the type tag are invisible to it.
const (
	TagType = "casefile.type"

	TypeUmbrella = "umbrella"
	TypeAnalysis = "analysis"
)

// umbrellaRunName is the display name of the per-experiment umbrella run.
const umbrellaRunName = "casefile"

// Registry is the run substrate the insights layer depends on.
// *runs.Registry satisfies it.
type Registry interface {
	CreateRun(ctx context.Context, experimentID, name, parentRunID string, tags map[string]string) (*runs.Run, error)
	GetRun(ctx context.Context, runID string) (*runs.Run, error)
	SearchByTag(ctx context.Context, experimentID, key, value string) ([]*runs.Run, error)
	ListChildren(ctx context.Context, parentRunID string) ([]*runs.Run, error)
	LinkTraces(ctx context.Context, runID string, traceIDs []string) error
	IsLinked(ctx context.Context, runID, traceID string) (bool, error)
	LinkedTraces(ctx context.Context, runID string) ([]string, error)
}

// Hierarchy manages the two-level run layout: an umbrella run per
// experiment with analysis runs nested under it.
type Hierarchy struct {
	registry Registry
	logger   *slog.Logger
}

// NewHierarchy creates a hierarchy manager over the given registry.
func NewHierarchy(registry Registry) *Hierarchy {
	return &Hierarchy{
		registry: registry,
		logger:   slog.Default().With("component", "hierarchy"),
	}
}

// GetOrCreateUmbrella returns the experiment's umbrella run, creating it
// on first use. Concurrent first calls may each create a run; the search
// after creation returns the oldest tagged run for everyone, so all
// callers converge on the same umbrella and the loser's run is an inert
// orphan.
func (h *Hierarchy) GetOrCreateUmbrella(ctx context.Context, experimentID string) (*runs.Run, error) {
	if experimentID == "" {
		return nil, &ValidationError{Field: "experiment_id", Reason: "must not be empty"}
	}

	found, err := h.registry.SearchByTag(ctx, experimentID, TagType, TypeUmbrella)
	if err != nil {
		return nil, fmt.Errorf("searching for umbrella run: %w", err)
	}
	if len(found) > 0 {
		return found[0], nil
	}

	created, err := h.registry.CreateRun(ctx, experimentID, umbrellaRunName, "", map[string]string{
		TagType: TypeUmbrella,
	})
	if err != nil {
		return nil, fmt.Errorf("creating umbrella run: %w", err)
	}
	h.logger.Info("created umbrella run", "experiment_id", experimentID, "run_id", created.ID)

	// Re-search rather than returning the fresh run: if another caller
	// created one concurrently, everyone must settle on the oldest.
	found, err = h.registry.SearchByTag(ctx, experimentID, TagType, TypeUmbrella)
	if err != nil {
		return nil, fmt.Errorf("searching for umbrella run: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("umbrella run vanished after creation in experiment %s", experimentID)
	}
	return found[0], nil
}

// CreateAnalysisRun creates a run for a new analysis, nested under the
// experiment's umbrella run and tagged as an analysis container.
func (h *Hierarchy) CreateAnalysisRun(ctx context.Context, experimentID, name string) (*runs.Run, error) {
	umbrella, err := h.GetOrCreateUmbrella(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	run, err := h.registry.CreateRun(ctx, experimentID, name, umbrella.ID, map[string]string{
		TagType: TypeAnalysis,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analysis run: %w", err)
	}
	h.logger.Info("created analysis run", "experiment_id", experimentID, "run_id", run.ID, "umbrella", umbrella.ID)
	return run, nil
}

// AnalysisRuns returns the experiment's analysis runs, oldest first.
func (h *Hierarchy) AnalysisRuns(ctx context.Context, experimentID string) ([]*runs.Run, error) {
	return h.registry.SearchByTag(ctx, experimentID, TagType, TypeAnalysis)
}

// RequireAnalysisRun fetches a run and verifies it is an analysis
// container. Runs outside the hierarchy map to ErrNotFound at this layer.
func (h *Hierarchy) RequireAnalysisRun(ctx context.Context, runID string) (*runs.Run, error) {
	run, err := h.registry.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			return nil, fmt.Errorf("analysis run %s: %w", runID, ErrNotFound)
		}
		return nil, err
	}
	if run.Tags[TagType] != TypeAnalysis {
		return nil, fmt.Errorf("run %s is not an analysis run: %w", runID, ErrNotFound)
	}
	return run, nil
}
