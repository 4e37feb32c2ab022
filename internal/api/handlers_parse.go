package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/spectoc/internal/pipeline"
	"github.com/dgallion1/spectoc/internal/validate"
)

type parseRequest struct {
	PDFPath string `json:"pdf_path"`
}

// handleParse queues a parse of the given or default PDF.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	path, err := validate.PDFPath(req.PDFPath, s.cfg.AssetsDir, s.cfg.DefaultPDF, s.cfg.MaxFileBytes)
	if err != nil {
		writeError(w, err)
		return
	}

	job := pipeline.NewJob(path)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"pdf_path": job.PDFPath,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/parse/%s/status", job.ID),
	})
}

func (s *Server) handleParseStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Reason, "code": verr.Code})
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
