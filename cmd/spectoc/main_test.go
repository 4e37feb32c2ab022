package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/spectoc/internal/doctree"
	"github.com/dgallion1/spectoc/internal/jsonl"
	"github.com/dgallion1/spectoc/internal/search"
	"github.com/dgallion1/spectoc/internal/validate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTOC(t *testing.T) {
	t.Helper()
	parent := "1"
	entries := []doctree.TOCEntry{
		{DocTitle: "Doc", SectionID: "1", Title: "Introduction", Page: 1, Level: 1, FullPath: "1 Introduction"},
		{DocTitle: "Doc", SectionID: "1.1", Title: "Overview", Page: 2, Level: 2, ParentID: &parent, FullPath: "1.1 Overview"},
	}
	if err := jsonl.WriteFile("toc.jsonl", entries); err != nil {
		t.Fatal(err)
	}
}

func TestSearchCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTOC_TOC_OUTPUT", "toc.jsonl")
	writeTOC(t)

	out, err := run(t, "search", "1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "1.1 Overview (page 2)" {
		t.Errorf("expected first line %q, got %q", "1.1 Overview (page 2)", lines[0])
	}
}

func TestSearchCommand_NoMatchesSucceeds(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTOC_TOC_OUTPUT", "toc.jsonl")
	writeTOC(t)

	out, err := run(t, "search", "zebra")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
}

func TestSearchCommand_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTOC_TOC_OUTPUT", "toc.jsonl")

	if _, err := run(t, "search", "power"); !errors.Is(err, search.ErrIndexMissing) {
		t.Errorf("expected ErrIndexMissing, got %v", err)
	}
	if _, err := run(t, "search", "a"); !errors.Is(err, validate.ErrQueryTooShort) {
		t.Errorf("expected ErrQueryTooShort, got %v", err)
	}
}

func TestParseCommand_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "parse", "notes.txt"); !errors.Is(err, validate.ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
	if _, err := run(t, "parse", "missing.pdf"); !errors.Is(err, validate.ErrPDFNotFound) {
		t.Errorf("expected ErrPDFNotFound, got %v", err)
	}

	t.Setenv("SPECTOC_TOC_OUTPUT", "../toc.jsonl")
	if err := os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "parse", "doc.pdf"); !errors.Is(err, validate.ErrUnsafePath) {
		t.Errorf("expected ErrUnsafePath, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPECTOC_TOC_OUTPUT", "toc.jsonl")
	t.Setenv("SPECTOC_CONTENT_OUTPUT", "content.jsonl")
	writeTOC(t)

	content := []doctree.ContentEntry{{
		DocTitle: "Doc", SectionID: "1", Title: "Introduction", PageRange: "1-1",
		Content: "text", ContentType: "text", HasContent: true, WordCount: 1,
		Images: []doctree.ImageInfo{}, Tables: []doctree.TableInfo{},
	}}
	if err := jsonl.WriteFile("content.jsonl", content); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "validate")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if strings.Count(out, "OK") != 2 {
		t.Errorf("expected two OK lines, got %q", out)
	}

	if err := os.WriteFile("content.jsonl", []byte(`{"section_id":1}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "validate")
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(out, "line 1:") {
		t.Errorf("expected a line error, got %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "spectoc dev") {
		t.Errorf("expected version line, got %q", out)
	}
}
