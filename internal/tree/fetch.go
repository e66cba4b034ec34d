package tree

import (
	"context"

	"github.com/MyTechPlan/oc-client/internal/repository"
)

// Result is the outcome of a tree fetch. Forest is always usable; Err records
// why it is empty when the upstream listing failed.
type Result struct {
	Forest Forest
	Err    error
}

// Failed reports whether the forest is empty because the listing failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Fetcher lists a repository and builds its tree.
type Fetcher struct {
	repo repository.Repository
}

// NewFetcher creates a Fetcher backed by repo.
func NewFetcher(repo repository.Repository) *Fetcher {
	return &Fetcher{repo: repo}
}

// Fetch never returns an error: upstream failures yield an empty forest with
// Err set.
func (f *Fetcher) Fetch(ctx context.Context, coord repository.Coordinate) Result {
	entries, err := f.repo.RecursiveTree(ctx, coord)
	if err != nil {
		return Result{Forest: Forest{Nodes: []*Node{}}, Err: err}
	}
	return Result{Forest: Build(entries)}
}
