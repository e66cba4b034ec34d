package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/tidwall/jsonc"
)

// DefaultJobsPath is where the job list lives in a tenant repository.
const DefaultJobsPath = "cron/jobs.json"

type jobFile struct {
	Jobs []Job `json:"jobs"`
}

// Parse strips comments and trailing commas from data and returns its jobs
// array in file order. A document without jobs yields an empty list.
func Parse(data []byte) ([]Job, error) {
	var f jobFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return nil, fmt.Errorf("parsing job file: %w", err)
	}
	if f.Jobs == nil {
		return []Job{}, nil
	}
	return f.Jobs, nil
}

// Result is the outcome of reading a job list. Jobs is never nil.
type Result struct {
	Jobs []Job
	Err  error
}

// Failed reports whether Jobs is empty because of an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Reader loads job lists from tenant repositories.
type Reader struct {
	repo repository.Repository
	path string
}

// NewReader creates a Reader for the job file at jobsPath.
func NewReader(repo repository.Repository, jobsPath string) *Reader {
	if jobsPath == "" {
		jobsPath = DefaultJobsPath
	}
	return &Reader{repo: repo, path: jobsPath}
}

// Path returns the repository-relative job file path.
func (r *Reader) Path() string {
	return r.path
}

// ReadJobs never returns an error to the caller. A missing file is an empty
// list with no error; an unreadable or malformed one is an empty list with
// Err set.
func (r *Reader) ReadJobs(ctx context.Context, coord repository.Coordinate) Result {
	f, err := r.repo.ReadFile(ctx, coord, r.path)
	if errors.Is(err, repository.ErrNotFound) {
		return Result{Jobs: []Job{}}
	}
	if err != nil {
		return Result{Jobs: []Job{}, Err: err}
	}

	jobs, err := Parse(f.Content)
	if err != nil {
		return Result{Jobs: []Job{}, Err: fmt.Errorf("%s: %w", r.path, err)}
	}
	return Result{Jobs: jobs}
}
