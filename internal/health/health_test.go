package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MyTechPlan/oc-client/internal/health"
	"github.com/MyTechPlan/oc-client/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLivenessHandler(t *testing.T) {
	hc := health.NewHealthCheck(new(mocks.MockRepository), nil, zap.NewNop())
	w := httptest.NewRecorder()

	hc.LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler_Ready(t *testing.T) {
	repo := new(mocks.MockRepository)
	repo.On("Ping", mock.Anything).Return(nil)
	hc := health.NewHealthCheck(repo, nil, zap.NewNop())
	w := httptest.NewRecorder()

	hc.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp health.ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["github"])
	repo.AssertExpectations(t)
}

func TestReadinessHandler_NotReady(t *testing.T) {
	repo := new(mocks.MockRepository)
	repo.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	hc := health.NewHealthCheck(repo, nil, zap.NewNop())
	w := httptest.NewRecorder()

	hc.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp health.ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "connection refused", resp.Error)
}

func TestReadinessHandler_ProbesEveryTime(t *testing.T) {
	repo := new(mocks.MockRepository)
	repo.On("Ping", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(nil)
	hc := health.NewHealthCheck(repo, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		hc.ReadinessHandler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))
	}

	repo.AssertNumberOfCalls(t, "Ping", 3)
}
