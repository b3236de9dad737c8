package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"songcatalog/internal/feed"
	"songcatalog/internal/pipeline"
)

const maxRequestBody = 1 << 20

type RunRequest struct {
	Titles []string `json:"titles"`
}

type RunResponse struct {
	ID          string    `json:"id"`
	Status      RunStatus `json:"status"`
	Titles      int       `json:"titles"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Matched     int       `json:"matched"`
	Unmatched   int       `json:"unmatched"`
	ErrorsAt    string    `json:"errors_at,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

type CatalogResponse struct {
	Songs     int64    `json:"songs"`
	Unmatched []string `json:"unmatched"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	titles := make([]string, 0, len(req.Titles))
	for _, t := range req.Titles {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		http.Error(w, "At least one title is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	run := s.runs.Create(titles, cancel)
	s.logger.Info("Created run %s for %d titles", run.ID, len(titles))

	go s.processRun(ctx, cancel, run.ID, titles)

	writeJSON(w, http.StatusAccepted, toResponse(run))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.runs.List()
	responses := make([]*RunResponse, len(runs))
	for i, run := range runs {
		responses[i] = toResponse(run)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(run))
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Cancel(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(run))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := s.deps.Catalog
	if catalog == nil {
		http.Error(w, "No catalog configured", http.StatusNotFound)
		return
	}

	n, err := catalog.SongCount()
	if err != nil {
		s.logger.Error("Failed to count songs: %v", err)
		http.Error(w, "Catalog unavailable", http.StatusInternalServerError)
		return
	}
	unmatched, err := catalog.Unmatched()
	if err != nil {
		s.logger.Error("Failed to list unmatched songs: %v", err)
		http.Error(w, "Catalog unavailable", http.StatusInternalServerError)
		return
	}
	if unmatched == nil {
		unmatched = []string{}
	}
	writeJSON(w, http.StatusOK, CatalogResponse{Songs: n, Unmatched: unmatched})
}

func (s *Server) processRun(ctx context.Context, cancel context.CancelFunc, id string, titles []string) {
	defer cancel()

	select {
	case s.slot <- struct{}{}:
		defer func() { <-s.slot }()
	case <-ctx.Done():
		s.runs.Update(id, func(r *Run) { r.Status = StatusCancelled })
		return
	}

	s.runs.Update(id, func(r *Run) { r.Status = StatusRunning })
	s.logger.Info("Starting run %s", id)

	hooks := pipeline.Hooks{
		OnStart: func(total int) {
			s.runs.Update(id, func(r *Run) { r.Total = total })
		},
		OnProgress: func() {
			s.runs.Update(id, func(r *Run) { r.Progress++ })
		},
	}

	report, err := pipeline.Run(ctx, s.deps, []feed.Feed{feed.Static{Label: "web", Texts: titles}}, hooks)

	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		s.logger.Info("Run %s cancelled", id)
		s.runs.Update(id, func(r *Run) { r.Status = StatusCancelled })
	case err != nil:
		s.logger.Error("Run %s failed: %v", id, err)
		s.runs.Update(id, func(r *Run) {
			r.Status = StatusFailed
			r.Error = err.Error()
		})
	default:
		s.logger.Info("Run %s completed: %d matched, %d unmatched", id, report.Matched, report.Unmatched)
		s.runs.Update(id, func(r *Run) {
			r.Status = StatusCompleted
			r.Matched = report.Matched
			r.Unmatched = report.Unmatched
			if report.HasErrors() {
				r.ErrorsAt = report.ErrorsAt
			}
		})
	}
}

const timeLayout = "2006-01-02 15:04:05"

func toResponse(run Run) *RunResponse {
	resp := &RunResponse{
		ID:        run.ID,
		Status:    run.Status,
		Titles:    len(run.Titles),
		Progress:  run.Progress,
		Total:     run.Total,
		Matched:   run.Matched,
		Unmatched: run.Unmatched,
		ErrorsAt:  run.ErrorsAt,
		Error:     run.Error,
		CreatedAt: run.CreatedAt.Format(timeLayout),
	}

	if run.StartedAt != nil {
		started := run.StartedAt.Format(timeLayout)
		resp.StartedAt = &started
	}

	if run.CompletedAt != nil {
		completed := run.CompletedAt.Format(timeLayout)
		resp.CompletedAt = &completed
	}

	return resp
}
