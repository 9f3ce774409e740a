// ABOUTME: JSON request decoding and one handler per query endpoint.
// ABOUTME: Request and response shapes mirror the CLI output structures.

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/casefile-io/casefile/internal/insights"
)

// maxRequestBody caps request size; these are tiny id-bearing payloads.
const maxRequestBody = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &insights.ValidationError{Field: "body", Reason: fmt.Sprintf("malformed request: %v", err)}
	}
	return nil
}

func encodeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type experimentRequest struct {
	ExperimentID string `json:"experiment_id"`
}

type runRequest struct {
	RunID string `json:"run_id"`
}

type hypothesesRunRequest struct {
	InsightsRunID string `json:"insights_run_id"`
}

type hypothesisGetRequest struct {
	InsightsRunID string `json:"insights_run_id"`
	HypothesisID  string `json:"hypothesis_id"`
}

type hypothesesPreviewRequest struct {
	InsightsRunID string `json:"insights_run_id"`
	MaxTraces     int    `json:"max_traces,omitempty"`
}

type issueGetRequest struct {
	IssueID      string `json:"issue_id"`
	ExperimentID string `json:"experiment_id,omitempty"`
}

type issuesPreviewRequest struct {
	ExperimentID string `json:"experiment_id"`
	MaxTraces    int    `json:"max_traces,omitempty"`
}

func (s *Server) handleAnalysesList(w http.ResponseWriter, r *http.Request) error {
	var req experimentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.ExperimentID == "" {
		return &insights.ValidationError{Field: "experiment_id", Reason: "must not be empty"}
	}

	analyses, err := s.query.ListAnalyses(r.Context(), req.ExperimentID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
	return nil
}

func (s *Server) handleAnalysesGet(w http.ResponseWriter, r *http.Request) error {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	analysis, err := s.repo.GetAnalysis(r.Context(), req.RunID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
	return nil
}

func (s *Server) handleHypothesesList(w http.ResponseWriter, r *http.Request) error {
	var req hypothesesRunRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	hypotheses, err := s.query.ListHypotheses(r.Context(), req.InsightsRunID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypotheses": hypotheses})
	return nil
}

func (s *Server) handleHypothesesGet(w http.ResponseWriter, r *http.Request) error {
	var req hypothesisGetRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	hypothesis, err := s.repo.GetHypothesis(r.Context(), req.InsightsRunID, req.HypothesisID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"hypothesis": hypothesis})
	return nil
}

func (s *Server) handleHypothesesPreview(w http.ResponseWriter, r *http.Request) error {
	var req hypothesesPreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	preview, err := s.query.PreviewHypotheses(r.Context(), req.InsightsRunID, req.MaxTraces)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, preview)
	return nil
}

func (s *Server) handleIssuesList(w http.ResponseWriter, r *http.Request) error {
	var req experimentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	issues, err := s.query.ListIssues(r.Context(), req.ExperimentID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
	return nil
}

func (s *Server) handleIssuesGet(w http.ResponseWriter, r *http.Request) error {
	var req issueGetRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	issue, err := s.repo.GetIssue(r.Context(), req.ExperimentID, req.IssueID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
	return nil
}

func (s *Server) handleIssuesPreview(w http.ResponseWriter, r *http.Request) error {
	var req issuesPreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.ExperimentID == "" {
		return &insights.ValidationError{Field: "experiment_id", Reason: "must not be empty"}
	}

	preview, err := s.query.PreviewIssues(r.Context(), req.ExperimentID, req.MaxTraces)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, preview)
	return nil
}
