// Package schema checks output records against embedded JSON Schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/spectoc/internal/jsonl"
)

//go:embed schemas/*.json
var files embed.FS

// Kind selects a record schema.
type Kind string

const (
	TOC     Kind = "toc"
	Content Kind = "content"
)

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[Kind]*jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[Kind]*jsonschema.Schema)}
	for kind, name := range map[Kind]string{TOC: "toc.schema.json", Content: "content.schema.json"} {
		raw, err := files.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("load schema %s: %w", name, err)
		}
		s, err := c.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[kind] = s
	}
	return v, nil
}

// Validate checks one encoded record.
func (v *Validator) Validate(kind Kind, raw []byte) error {
	s, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown schema %q", kind)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return errors.New(leafMessage(err))
	}
	return nil
}

// ValidateRecords encodes and checks each record, stopping at the first failure.
func ValidateRecords[T any](v *Validator, kind Kind, records []T) error {
	for i, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("record %d: encode: %w", i, err)
		}
		if err := v.Validate(kind, raw); err != nil {
			return fmt.Errorf("%s record %d: %w", kind, i, err)
		}
	}
	return nil
}

// LineError is the first problem found on one line of a file.
type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// FileReport summarizes a file check.
type FileReport struct {
	Path    string      `json:"path"`
	Kind    Kind        `json:"kind"`
	Records int         `json:"records"`
	Invalid int         `json:"invalid"`
	Errors  []LineError `json:"errors"`
}

// OK reports whether every record passed.
func (r FileReport) OK() bool { return r.Invalid == 0 }

// ValidateFile checks every non-blank line of path. Malformed JSON counts as
// an invalid line rather than aborting the check.
func (v *Validator) ValidateFile(kind Kind, path string) (FileReport, error) {
	rep := FileReport{Path: path, Kind: kind, Errors: []LineError{}}
	f, err := os.Open(path)
	if err != nil {
		return rep, err
	}
	defer f.Close()

	err = jsonl.Lines(f, func(line int, raw []byte) error {
		rep.Records++
		if err := v.Validate(kind, raw); err != nil {
			rep.Invalid++
			rep.Errors = append(rep.Errors, LineError{Line: line, Message: err.Error()})
		}
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("validate %s: %w", path, err)
	}
	return rep, nil
}

// leafMessage follows the first cause chain to the most specific failure.
func leafMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
