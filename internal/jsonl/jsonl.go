// Package jsonl reads and writes JSON Lines files.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/moby/sys/atomicwriter"
)

// maxLine bounds a single record. Content rows are capped well below this.
const maxLine = 16 << 20

// Marshal encodes records one per line, in order, without HTML escaping.
func Marshal[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// WriteFile replaces path with records. The file is only swapped in after
// every record has been encoded, so a failure leaves the old file intact.
func WriteFile[T any](path string, records []T) error {
	data, err := Marshal(records)
	if err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Lines calls fn for each non-blank line with its 1-based line number.
func Lines(r io.Reader, fn func(line int, raw []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for sc.Scan() {
		n++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := fn(n, raw); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", n+1, err)
	}
	return nil
}

// Scan decodes each line into T. Malformed lines are logged and skipped.
func Scan[T any](r io.Reader, log *slog.Logger, fn func(rec T) error) error {
	if log == nil {
		log = slog.Default()
	}
	return Lines(r, func(line int, raw []byte) error {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn("skipping malformed line", "line", line, "error", err)
			return nil
		}
		return fn(rec)
	})
}

// ReadFile loads every well-formed record in path.
func ReadFile[T any](path string, log *slog.Logger) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []T
	err = Scan(f, log, func(rec T) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
