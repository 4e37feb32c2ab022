package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/jsonl"
	"github.com/dgallion1/spectoc/internal/validate"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func toc(id, title string, level, page int, parent string) doctree.TOCEntry {
	e := doctree.TOCEntry{DocTitle: "Doc", SectionID: id, Title: title, Level: level, Page: page, FullPath: id + " " + title}
	if parent != "" {
		e.ParentID = &parent
	}
	return e
}

func sampleEntries() []doctree.TOCEntry {
	return []doctree.TOCEntry{
		toc("1", "Introduction", 1, 1, ""),
		toc("1.1", "Overview", 2, 2, "1"),
		toc("1.2", "Power Delivery Overview", 2, 4, "1"),
		toc("1.10", "Cable Overview", 2, 9, "1"),
		toc("2", "Power Rules", 1, 12, ""),
		toc("11.1", "Power Supply", 2, 40, ""),
	}
}

func writeTOC(t *testing.T, dir string, entries []doctree.TOCEntry) string {
	t.Helper()
	path := filepath.Join(dir, "toc.jsonl")
	if err := jsonl.WriteFile(path, entries); err != nil {
		t.Fatalf("write toc: %v", err)
	}
	return path
}

func newSearcher(t *testing.T, entries []doctree.TOCEntry) *Searcher {
	t.Helper()
	path := writeTOC(t, t.TempDir(), entries)
	return New(Options{TOCPath: path, MinQueryLength: 2}, quiet())
}

func TestSearch_ExactSectionFirst(t *testing.T) {
	s := newSearcher(t, sampleEntries())
	got, err := s.Search("1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected results")
	}
	if got[0].SectionID != "1.1" || got[0].Title != "Overview" || got[0].MatchType != MatchExactSection {
		t.Errorf("expected 1.1 Overview exact_section first, got %+v", got[0])
	}
	if got[0].Page != 2 {
		t.Errorf("expected page 2, got %d", got[0].Page)
	}

	partial := map[string]bool{}
	for _, r := range got[1:] {
		if r.MatchType != MatchPartialSection {
			t.Errorf("expected partial_section after exact, got %+v", r)
		}
		partial[r.SectionID] = true
	}
	if !partial["1.10"] || !partial["11.1"] {
		t.Errorf("expected 1.10 and 11.1 as partial matches, got %+v", got)
	}
}

func TestSearch_TextMatchRequiresAllTokens(t *testing.T) {
	s := newSearcher(t, sampleEntries())
	got, err := s.Search("power overview")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SectionID != "1.2" || got[0].MatchType != MatchText {
		t.Errorf("expected only 1.2 as text_match, got %+v", got)
	}
}

func TestSearch_CaseInsensitiveText(t *testing.T) {
	s := newSearcher(t, sampleEntries())
	got, err := s.Search("OVERVIEW")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 hits, got %+v", got)
	}
	for i, want := range []string{"1.1", "1.2", "1.10"} {
		if got[i].SectionID != want {
			t.Errorf("hit %d: expected %s, got %s", i, want, got[i].SectionID)
		}
	}
}

func TestSearch_DedupesAcrossStrategies(t *testing.T) {
	entries := []doctree.TOCEntry{toc("12", "Section 12 and 12", 1, 1, "")}
	s := newSearcher(t, entries)
	got, err := s.Search("12")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MatchType != MatchExactSection {
		t.Errorf("expected one exact hit, got %+v", got)
	}
}

func TestSearch_NoMatchesIsNotAnError(t *testing.T) {
	s := newSearcher(t, sampleEntries())
	got, err := s.Search("zzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestSearch_RejectsShortQuery(t *testing.T) {
	s := newSearcher(t, sampleEntries())
	if _, err := s.Search("a"); !errors.Is(err, validate.ErrQueryTooShort) {
		t.Errorf("expected ErrQueryTooShort, got %v", err)
	}
	if s.State() != StateEmpty {
		t.Errorf("expected index untouched, got state %s", s.State())
	}
}

func TestSearch_MissingIndexFile(t *testing.T) {
	s := New(Options{TOCPath: filepath.Join(t.TempDir(), "none.jsonl")}, quiet())
	if _, err := s.Search("power"); !errors.Is(err, ErrIndexMissing) {
		t.Errorf("expected ErrIndexMissing, got %v", err)
	}
}

func TestSearch_LimitCapsResults(t *testing.T) {
	var entries []doctree.TOCEntry
	for i := 1; i <= 30; i++ {
		id := strconv.Itoa(i)
		entries = append(entries, toc(id, "Power topic "+id, 1, i, ""))
	}
	s := newSearcher(t, entries)

	got, err := s.Find(Request{Query: "power", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("expected 10 results, got %d", len(got))
	}
	all, _ := s.Find(Request{Query: "power"})
	if len(all) != 30 {
		t.Errorf("expected unlimited to return 30, got %d", len(all))
	}
}

func TestSearch_PartialScanIsBounded(t *testing.T) {
	var entries []doctree.TOCEntry
	for i := 1; i <= 60; i++ {
		entries = append(entries, toc("9."+strconv.Itoa(i), "Item", 2, i, ""))
	}
	s := newSearcher(t, entries)
	got, err := s.Find(Request{Query: "9.5"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range got {
		if r.SectionID == "9.55" {
			t.Errorf("expected ids beyond the first 50 to be skipped, got %+v", r)
		}
	}
	if len(got) == 0 || got[0].SectionID != "9.5" {
		t.Errorf("expected exact 9.5 first, got %+v", got)
	}
}

func TestSearch_ContentMatch(t *testing.T) {
	dir := t.TempDir()
	tocPath := writeTOC(t, dir, sampleEntries())
	contentPath := filepath.Join(dir, "content.jsonl")
	content := []doctree.ContentEntry{
		{SectionID: "2", Title: "Power Rules", Content: "The Source shall limit VBUS current."},
		{SectionID: "1.1", Title: "Overview", Content: "nothing relevant"},
	}
	if err := jsonl.WriteFile(contentPath, content); err != nil {
		t.Fatal(err)
	}

	s := New(Options{TOCPath: tocPath, ContentPath: contentPath}, quiet())
	got, err := s.Find(Request{Query: "vbus current", Content: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SectionID != "2" || got[0].MatchType != MatchContent || got[0].Page != 12 {
		t.Errorf("expected content match for section 2, got %+v", got)
	}

	without, _ := s.Find(Request{Query: "vbus current"})
	if len(without) != 0 {
		t.Errorf("expected no hits without content search, got %+v", without)
	}
}

func TestSearcher_RebuildsOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	path := writeTOC(t, dir, sampleEntries())
	s := New(Options{TOCPath: path}, quiet())

	if _, err := s.Search("power"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Search("overview"); err != nil {
		t.Fatal(err)
	}
	if s.Builds() != 1 {
		t.Fatalf("expected 1 build, got %d", s.Builds())
	}
	if s.State() != StateReady {
		t.Errorf("expected ready, got %s", s.State())
	}

	writeTOC(t, dir, []doctree.TOCEntry{toc("7", "Battery Charging", 1, 1, "")})
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	got, err := s.Search("battery")
	if err != nil {
		t.Fatal(err)
	}
	if s.Builds() != 2 {
		t.Errorf("expected rebuild, got %d builds", s.Builds())
	}
	if len(got) != 1 || got[0].SectionID != "7" {
		t.Errorf("expected fresh results, got %+v", got)
	}
}

func TestSearcher_InvalidateForcesRebuild(t *testing.T) {
	s := newSearcher(t, sampleEntries())
	if _, err := s.Index(); err != nil {
		t.Fatal(err)
	}
	s.Invalidate()
	if s.State() != StateEmpty {
		t.Errorf("expected empty after invalidate, got %s", s.State())
	}
	if _, err := s.Index(); err != nil {
		t.Fatal(err)
	}
	if s.Builds() != 2 {
		t.Errorf("expected 2 builds, got %d", s.Builds())
	}
}

func TestIndex_SectionAndChildren(t *testing.T) {
	ix := BuildIndex(sampleEntries())
	if ix.Len() != 6 {
		t.Errorf("expected 6 rows, got %d", ix.Len())
	}
	e, ok := ix.Section("1.2")
	if !ok || e.Title != "Power Delivery Overview" {
		t.Errorf("unexpected lookup %+v %v", e, ok)
	}
	kids := ix.Children("1")
	if len(kids) != 3 || kids[0].SectionID != "1.1" || kids[2].SectionID != "1.10" {
		t.Errorf("unexpected children %+v", kids)
	}
	if got := ix.Children("2"); len(got) != 0 || got == nil {
		t.Errorf("expected empty non-nil children, got %#v", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("USB-C a Power_Delivery 3.2")
	want := []string{"usb", "power_delivery"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestWatch_InvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeTOC(t, dir, sampleEntries())
	s := New(Options{TOCPath: path}, quiet())
	if _, err := s.Index(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	writeTOC(t, dir, sampleEntries()[:1])

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateEmpty && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
	if s.State() != StateEmpty {
		t.Errorf("expected index invalidated after write, got %s", s.State())
	}
}
