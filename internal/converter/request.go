// Package converter translates between HTTP requests and responses and the
// service's domain types.
package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 5 << 20

// RequestDecoder reads and validates inbound requests.
type RequestDecoder struct {
	maxBodyBytes int64
}

// NewRequestDecoder creates a RequestDecoder. A non-positive limit uses
// DefaultMaxBodyBytes.
func NewRequestDecoder(maxBodyBytes int64) *RequestDecoder {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &RequestDecoder{maxBodyBytes: maxBodyBytes}
}

// LoginHTTPRequest is the body of a login POST.
type LoginHTTPRequest struct {
	Password string `json:"password"`
}

// UpdateFileHTTPRequest is the body of a file PUT. An empty SHA creates the
// file.
type UpdateFileHTTPRequest struct {
	Content *string `json:"content"`
	SHA     string  `json:"sha"`
	Message string  `json:"message,omitempty"`
}

// IsFormSubmission reports whether r carries a form body. A form POST to the
// auth endpoint is a logout.
func IsFormSubmission(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "form")
}

// LoginRequest decodes a login body. A missing password or an empty body
// decodes as an empty password.
func (d *RequestDecoder) LoginRequest(w http.ResponseWriter, r *http.Request) (*LoginHTTPRequest, error) {
	var req LoginHTTPRequest
	if err := d.decode(w, r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateFileRequest decodes a file update body.
func (d *RequestDecoder) UpdateFileRequest(w http.ResponseWriter, r *http.Request) (*UpdateFileHTTPRequest, error) {
	var req UpdateFileHTTPRequest
	if err := d.decode(w, r, &req); err != nil {
		return nil, err
	}
	if req.Content == nil {
		return nil, fmt.Errorf("content is required")
	}
	return &req, nil
}

func (d *RequestDecoder) decode(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	// An empty body decodes as the zero value.
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse request body: %w", err)
	}
	return nil
}

// TenantID returns the {id} route variable.
func TenantID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// FilePath returns the {path} route variable as a clean repository-relative
// path. Absolute paths and parent references are rejected.
func FilePath(r *http.Request) (string, error) {
	return cleanPath(mux.Vars(r)["path"], false)
}

// DirectoryPath returns the path query parameter. Empty means the
// repository root.
func DirectoryPath(r *http.Request) (string, error) {
	return cleanPath(r.URL.Query().Get("path"), true)
}

func cleanPath(p string, allowEmpty bool) (string, error) {
	p = strings.TrimSuffix(p, "/")
	if p == "" || p == "." {
		if allowEmpty {
			return "", nil
		}
		return "", fmt.Errorf("path is required")
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("path must be relative")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path must not contain ..")
		}
	}
	return path.Clean(p), nil
}
