package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/MyTechPlan/oc-client/internal/metrics"
	"github.com/google/go-github/v74/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const defaultCommitMessage = "Update %s via TaaS Admin"

// Client implements Repository on top of the GitHub REST API.
type Client struct {
	gh            *github.Client
	commitMessage string
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewClient creates a GitHub-backed repository client. A nil metrics is allowed.
func NewClient(cfg config.GitHubConfig, m *metrics.Metrics, logger *zap.Logger) (*Client, error) {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		logger.Warn("no github token configured, using unauthenticated requests")
		httpClient = &http.Client{}
	}
	httpClient.Timeout = cfg.Timeout

	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base_url: %w", err)
		}
		gh.BaseURL = base
	}

	msg := cfg.CommitMessage
	if msg == "" {
		msg = defaultCommitMessage
	}

	return &Client{
		gh:            gh,
		commitMessage: msg,
		metrics:       m,
		logger:        logger,
	}, nil
}

// ReadFile fetches a file and decodes its content. Directories, symlinks and
// submodules are reported as ErrNotFound.
func (c *Client) ReadFile(ctx context.Context, coord Coordinate, filePath string) (*File, error) {
	start := time.Now()
	fc, _, resp, err := c.gh.Repositories.GetContents(ctx, coord.Owner, coord.Name, filePath, nil)
	err = c.observe("read_file", start, resp, err)
	if err != nil {
		return nil, err
	}
	if fc == nil || fc.GetType() != "file" {
		return nil, fmt.Errorf("%s is not a file: %w", filePath, ErrNotFound)
	}

	content, err := fc.GetContent()
	if err != nil {
		return nil, &UpstreamError{Op: "read_file", Err: fmt.Errorf("decoding %s: %w", filePath, err)}
	}

	return &File{
		Path:    fc.GetPath(),
		Content: []byte(content),
		SHA:     fc.GetSHA(),
	}, nil
}

// WriteFile creates or updates a file. When expectedSHA is set the update only
// succeeds if it still matches the stored blob; a mismatch is ErrConflict.
// An empty expectedSHA creates the file and fails if it already exists.
// It returns the new blob SHA. The call is never retried.
func (c *Client) WriteFile(ctx context.Context, coord Coordinate, filePath string, content []byte, expectedSHA, message string) (string, error) {
	if message == "" {
		message = c.defaultMessage(filePath)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
	}

	start := time.Now()
	var (
		result *github.RepositoryContentResponse
		resp   *github.Response
		err    error
	)
	if expectedSHA != "" {
		opts.SHA = github.Ptr(expectedSHA)
		result, resp, err = c.gh.Repositories.UpdateFile(ctx, coord.Owner, coord.Name, filePath, opts)
	} else {
		result, resp, err = c.gh.Repositories.CreateFile(ctx, coord.Owner, coord.Name, filePath, opts)
	}
	if err = c.observe("write_file", start, resp, err); err != nil {
		return "", err
	}

	if result == nil || result.Content == nil {
		return "", nil
	}
	return result.Content.GetSHA(), nil
}

// ListDirectory lists one directory. A missing path, or a path that is a
// file, yields an empty listing and no error.
func (c *Client) ListDirectory(ctx context.Context, coord Coordinate, dirPath string) ([]Entry, error) {
	start := time.Now()
	_, dir, resp, err := c.gh.Repositories.GetContents(ctx, coord.Owner, coord.Name, dirPath, nil)
	err = c.observe("list_directory", start, resp, err)
	if errors.Is(err, ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		typ := EntryFile
		if item.GetType() == "dir" {
			typ = EntryDir
		}
		entries = append(entries, Entry{
			Path: item.GetPath(),
			Name: item.GetName(),
			Type: typ,
			SHA:  item.GetSHA(),
		})
	}
	return entries, nil
}

// RecursiveTree lists every blob and tree on the repository's default branch.
// Submodule entries are skipped.
func (c *Client) RecursiveTree(ctx context.Context, coord Coordinate) ([]Entry, error) {
	start := time.Now()
	repo, resp, err := c.gh.Repositories.Get(ctx, coord.Owner, coord.Name)
	if err = c.observe("get_repository", start, resp, err); err != nil {
		return nil, err
	}
	branch := repo.GetDefaultBranch()
	if branch == "" {
		return nil, &UpstreamError{Op: "get_repository", Err: errors.New("repository has no default branch")}
	}

	start = time.Now()
	tree, resp, err := c.gh.Git.GetTree(ctx, coord.Owner, coord.Name, branch, true)
	if err = c.observe("get_tree", start, resp, err); err != nil {
		return nil, err
	}

	if tree.GetTruncated() {
		c.logger.Warn("recursive tree truncated by upstream",
			zap.String("repo", coord.String()),
			zap.String("branch", branch),
			zap.Int("entries", len(tree.Entries)),
		)
	}

	entries := make([]Entry, 0, len(tree.Entries))
	for _, te := range tree.Entries {
		var typ EntryType
		switch te.GetType() {
		case "blob":
			typ = EntryFile
		case "tree":
			typ = EntryDir
		default:
			continue
		}
		entries = append(entries, Entry{
			Path: te.GetPath(),
			Name: path.Base(te.GetPath()),
			Type: typ,
			SHA:  te.GetSHA(),
		})
	}
	return entries, nil
}

// Ping checks that the API is reachable and the credential is accepted.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	_, resp, err := c.gh.RateLimit.Get(ctx)
	return c.observe("ping", start, resp, err)
}

func (c *Client) defaultMessage(filePath string) string {
	if strings.Contains(c.commitMessage, "%s") {
		return fmt.Sprintf(c.commitMessage, filePath)
	}
	return c.commitMessage
}

// observe records the call and maps a go-github error onto this package's
// error kinds.
func (c *Client) observe(op string, start time.Time, resp *github.Response, err error) error {
	mapped := classify(op, resp, err)

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(op, outcome(mapped), time.Since(start))
		if mapped != nil && !errors.Is(mapped, ErrNotFound) {
			c.metrics.RecordUpstreamError(op, outcome(mapped))
		}
	}
	return mapped
}

func classify(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %v: %w", op, err, ErrConflict)
	}
	return &UpstreamError{Op: op, StatusCode: status, Err: err}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
