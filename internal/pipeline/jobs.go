package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/spectoc/internal/extract"
)

// JobStatus represents the state of a parse job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusWriting    JobStatus = "writing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of a single parse run.
type Job struct {
	mu sync.Mutex

	ID      string    `json:"job_id"`
	PDFPath string    `json:"pdf_path"`
	Status  JobStatus `json:"status"`
	Phase   string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	TOCEntries    int      `json:"toc_entries"`
	Dropped       int      `json:"dropped"`
	Sections      int      `json:"sections"`
	EmptySections int      `json:"empty_sections"`
	PageErrors    int      `json:"page_errors"`
	TimedOut      int      `json:"timed_out"`
	Images        int      `json:"images"`
	Tables        int      `json:"tables"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job with a fresh id.
func NewJob(pdfPath string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		PDFPath:   pdfPath,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTOC records how many entries survived filtering and how many were dropped.
func (j *Job) SetTOC(kept, dropped int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TOCEntries = kept
	j.Progress.Dropped = dropped
	j.UpdatedAt = time.Now()
}

// SetSummary copies extraction totals onto the job.
func (j *Job) SetSummary(s extract.Summary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = s.Sections
	j.Progress.EmptySections = s.Empty
	j.Progress.PageErrors = s.PageErrors
	j.Progress.TimedOut = s.TimedOut
	j.Progress.Images = s.Images
	j.Progress.Tables = s.Tables
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	PDFPath   string    `json:"pdf_path"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append([]string{}, j.errors...)
	return JobSnapshot{
		ID:        j.ID,
		PDFPath:   j.PDFPath,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
