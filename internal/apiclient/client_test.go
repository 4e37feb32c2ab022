package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/search"
)

func TestSearch(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(SearchResponse{
			Query:   "power",
			Count:   1,
			Results: []search.Result{{SectionID: "1.2", Title: "Power", Page: 4, MatchType: search.MatchText}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key")
	defer c.Close()

	resp, err := c.Search(context.Background(), "power", true, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 || resp.Results[0].SectionID != "1.2" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if gotAuth != "Bearer key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	for _, want := range []string{"q=power", "content=true", "limit=5"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("expected query to contain %s, got %s", want, gotQuery)
		}
	}
}

func TestSearch_DefaultLimitOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("limit") || r.URL.Query().Has("content") {
			t.Errorf("expected no limit or content, got %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("expected no auth header without a key")
		}
		json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "").Search(context.Background(), "power", false, -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"query is too short"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Search(context.Background(), "a", false, -1)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status 400 error, got %v", err)
	}
}

func TestSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/sections/1.1" {
			json.NewEncoder(w).Encode(doctree.TOCEntry{SectionID: "1.1", Title: "Overview", Page: 2})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "")

	e, err := c.Section(context.Background(), "1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Title != "Overview" {
		t.Errorf("expected Overview, got %q", e.Title)
	}

	if _, err := c.Section(context.Background(), "9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/parse":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["pdf_path"] != "doc.pdf" {
				t.Errorf("expected doc.pdf, got %q", body["pdf_path"])
			}
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(ParseResponse{JobID: "j1", Status: "queued", PollURL: "/api/parse/j1/status"})
		case r.URL.Path == "/api/parse/j1/status":
			w.Write([]byte(`{"job_id":"j1","status":"completed","progress":{"toc_entries":3}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "")

	pr, err := c.Parse(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pr.JobID != "j1" {
		t.Errorf("expected j1, got %q", pr.JobID)
	}

	snap, err := c.ParseStatus(context.Background(), pr.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != "completed" || snap.Progress.TOCEntries != 3 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
