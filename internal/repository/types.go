// Package repository adapts the GitHub REST API to the operations the admin
// service needs on a tenant repository: read a file, write it back guarded by
// its revision marker, list a directory, and list the whole default branch.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a path does not exist or is not a file.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when a write's revision marker is stale.
	ErrConflict = errors.New("repository: revision conflict")
)

// EntryType distinguishes files from directories.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Repository is the hosting API surface used by the rest of the service.
type Repository interface {
	ReadFile(ctx context.Context, coord Coordinate, path string) (*File, error)
	WriteFile(ctx context.Context, coord Coordinate, path string, content []byte, expectedSHA, message string) (string, error)
	ListDirectory(ctx context.Context, coord Coordinate, path string) ([]Entry, error)
	RecursiveTree(ctx context.Context, coord Coordinate) ([]Entry, error)
	Ping(ctx context.Context) error
}

// Coordinate identifies a repository as owner/name.
type Coordinate struct {
	Owner string
	Name  string
}

// ParseCoordinate parses "owner/name".
func ParseCoordinate(s string) (Coordinate, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Coordinate{}, fmt.Errorf("invalid repository coordinate %q: want owner/name", s)
	}
	return Coordinate{Owner: owner, Name: name}, nil
}

func (c Coordinate) String() string {
	return c.Owner + "/" + c.Name
}

// MarshalText renders the coordinate as owner/name.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses owner/name.
func (c *Coordinate) UnmarshalText(b []byte) error {
	parsed, err := ParseCoordinate(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Entry is one item of a directory or tree listing.
type Entry struct {
	Path string    `json:"path"`
	Name string    `json:"name"`
	Type EntryType `json:"type"`
	SHA  string    `json:"sha,omitempty"`
}

// File is a decoded file together with its revision marker.
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// UpstreamError wraps any hosting API failure that is not a not-found or a
// revision conflict.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("repository: %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
