package errors_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/MyTechPlan/oc-client/internal/errors"
	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apierrors.ErrorCode
	}{
		{"nil", nil, http.StatusOK, ""},
		{"not found", fmt.Errorf("read: %w", repository.ErrNotFound), http.StatusNotFound, apierrors.ErrorCodeFileNotFound},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, apierrors.ErrorCodeTimeout},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, apierrors.ErrorCodeServiceDown},
		{"upstream", &repository.UpstreamError{Op: "get_tree", StatusCode: 500, Err: errors.New("boom")}, http.StatusBadGateway, apierrors.ErrorCodeServiceDown},
		{"other", errors.New("boom"), http.StatusInternalServerError, apierrors.ErrorCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := apierrors.Classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestHandleError_HidesUpstreamDetail(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/api/tenants/enki/files/a.md", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, &repository.UpstreamError{Op: "read_file", StatusCode: 401, Err: errors.New("Bad credentials")})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, apierrors.ErrorCodeServiceDown, resp.ErrorCode)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.NotContains(t, rec.Body.String(), "Bad credentials")
}

func TestWriteHelpers(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())

	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   apierrors.ErrorCode
		wantMsg    string
	}{
		{"unauthorized", func(w http.ResponseWriter) { h.WriteUnauthorized(w, "r") }, http.StatusUnauthorized, apierrors.ErrorCodeUnauthorized, "Unauthorized"},
		{"tenant not found", func(w http.ResponseWriter) { h.WriteTenantNotFound(w, "r") }, http.StatusNotFound, apierrors.ErrorCodeTenantNotFound, "tenant not found"},
		{"file not found", func(w http.ResponseWriter) { h.WriteFileNotFound(w, "r") }, http.StatusNotFound, apierrors.ErrorCodeFileNotFound, "file not found"},
		{"update failed", func(w http.ResponseWriter) { h.WriteUpdateFailed(w, "r") }, http.StatusInternalServerError, apierrors.ErrorCodeUpdateFailed, "failed to update file"},
		{"validation", func(w http.ResponseWriter) { h.WriteValidationError(w, "bad body", "r") }, http.StatusBadRequest, apierrors.ErrorCodeInvalidRequest, "bad body"},
		{"rate limited", func(w http.ResponseWriter) { h.WriteRateLimitedError(w, "r") }, http.StatusTooManyRequests, apierrors.ErrorCodeRateLimited, "rate limit exceeded"},
		{"internal", func(w http.ResponseWriter) { h.WriteInternalError(w, "oops", "r") }, http.StatusInternalServerError, apierrors.ErrorCodeInternalError, "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			resp := decode(t, rec)
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Equal(t, "r", resp.RequestID)
		})
	}
}

func TestUnauthorizedHandler(t *testing.T) {
	h := apierrors.NewHandler(zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/api/tenants", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()

	h.Unauthorized().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, apierrors.ErrorCodeUnauthorized, resp.ErrorCode)
	assert.Equal(t, "abc", resp.RequestID)
}
