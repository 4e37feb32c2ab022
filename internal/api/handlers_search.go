package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/search"
	"github.com/dgallion1/spectoc/internal/validate"
)

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []search.Result `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := search.Request{
		Query:   q.Get("q"),
		Content: s.cfg.SearchContent,
		Limit:   s.cfg.MaxResults,
	}
	if v := q.Get("content"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "content must be a boolean", http.StatusBadRequest)
			return
		}
		req.Content = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		req.Limit = n
	}

	buildsBefore := s.searcher.Builds()
	results, err := s.searcher.Find(req)
	if s.searcher.Builds() != buildsBefore {
		s.metrics.RecordIndexBuild()
	}
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			s.metrics.RecordSearch("invalid", 0)
		} else {
			s.metrics.RecordSearch("error", 0)
		}
		s.indexError(w, err)
		return
	}
	s.metrics.RecordSearch("ok", len(results))

	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Count: len(results), Results: results})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	ix, err := s.searcher.Index()
	if err != nil {
		s.indexError(w, err)
		return
	}
	id := chi.URLParam(r, "sectionID")
	entry, ok := ix.Section(id)
	if !ok {
		jsonError(w, "section not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	ix, err := s.searcher.Index()
	if err != nil {
		s.indexError(w, err)
		return
	}
	id := chi.URLParam(r, "sectionID")
	if _, ok := ix.Section(id); !ok {
		jsonError(w, "section not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section_id": id,
		"children":   ix.Children(id),
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	ix, err := s.searcher.Index()
	if err != nil {
		s.indexError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doctree.BuildTree(s.cfg.DocTitle, ix.Entries()))
}

func (s *Server) indexError(w http.ResponseWriter, err error) {
	if errors.Is(err, search.ErrIndexMissing) {
		jsonError(w, "toc not available, run a parse first", http.StatusServiceUnavailable)
		return
	}
	writeError(w, err)
}
