// Package validate checks user-supplied queries and file paths before any
// file is opened.
package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error is a validation failure with a machine-readable code and a reason
// suitable for showing to a user.
type Error struct {
	Code   string
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// Is matches any *Error with the same code, so the sentinels below work with
// errors.Is regardless of the reason text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrQueryEmpty    = &Error{Code: "query_empty", Reason: "query is empty"}
	ErrQueryTooShort = &Error{Code: "query_too_short", Reason: "query is too short"}
	ErrUnsafePath    = &Error{Code: "unsafe_path", Reason: "unsafe path"}
	ErrPDFNotFound   = &Error{Code: "pdf_not_found", Reason: "pdf not found"}
	ErrNotPDF        = &Error{Code: "not_pdf", Reason: "not a pdf file"}
	ErrPDFTooLarge   = &Error{Code: "pdf_too_large", Reason: "pdf too large"}
)

const (
	queryStrip   = "<>\"'&\x00\r\n"
	pathBadChars = "~$`|;&><"
)

func fail(kind *Error, format string, args ...any) *Error {
	return &Error{Code: kind.Code, Reason: fmt.Sprintf(format, args...)}
}

// Query trims q, enforces the minimum length and strips markup and control
// characters. A query that is empty after stripping is rejected.
func Query(q string, minLen int) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrQueryEmpty
	}
	if n := len([]rune(q)); n < minLen {
		return "", fail(ErrQueryTooShort, "query must be at least %d characters, got %d", minLen, n)
	}

	q = strings.Map(func(r rune) rune {
		if strings.ContainsRune(queryStrip, r) {
			return -1
		}
		return r
	}, q)
	q = strings.TrimSpace(q)
	if q == "" {
		return "", fail(ErrQueryEmpty, "query is empty after removing unsupported characters")
	}
	return q, nil
}

// OutputPath checks that name is a bare filename and returns its absolute
// location inside the working directory.
func OutputPath(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fail(ErrUnsafePath, "output filename is empty")
	}
	if filepath.IsAbs(name) {
		return "", fail(ErrUnsafePath, "absolute paths are not allowed: %s", name)
	}
	if strings.Contains(name, "..") {
		return "", fail(ErrUnsafePath, "parent directory traversal is not allowed: %s", name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator) {
		return "", fail(ErrUnsafePath, "output must be a bare filename: %s", name)
	}
	if strings.ContainsAny(name, pathBadChars) {
		return "", fail(ErrUnsafePath, "filename contains unsupported characters: %s", name)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	abs := filepath.Join(cwd, name)
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || rel != name {
		return "", fail(ErrUnsafePath, "path escapes working directory: %s", name)
	}
	return abs, nil
}

// PDFPath resolves the input document. An empty path selects defaultPDF in
// assetsDir; a path that does not exist is retried relative to assetsDir.
// maxBytes <= 0 disables the size check.
func PDFPath(path, assetsDir, defaultPDF string, maxBytes int64) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join(assetsDir, defaultPDF)
	}
	if strings.ContainsAny(path, pathBadChars) {
		return "", fail(ErrUnsafePath, "pdf path contains unsupported characters: %s", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", fail(ErrNotPDF, "expected a .pdf file, got %s", path)
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) && !filepath.IsAbs(path) {
		alt := filepath.Join(assetsDir, path)
		if altInfo, altErr := os.Stat(alt); altErr == nil {
			path, info, err = alt, altInfo, nil
		}
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fail(ErrPDFNotFound, "pdf not found: %s", path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fail(ErrPDFNotFound, "pdf path is a directory: %s", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fail(ErrPDFTooLarge, "pdf is %d bytes, limit is %d", info.Size(), maxBytes)
	}
	return path, nil
}
