// Package handler provides HTTP request handlers for the admin API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MyTechPlan/oc-client/internal/auth"
	"github.com/MyTechPlan/oc-client/internal/converter"
	"github.com/MyTechPlan/oc-client/internal/cron"
	apierrors "github.com/MyTechPlan/oc-client/internal/errors"
	"github.com/MyTechPlan/oc-client/internal/metrics"
	"github.com/MyTechPlan/oc-client/internal/middleware"
	"github.com/MyTechPlan/oc-client/internal/preview"
	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/MyTechPlan/oc-client/internal/tenant"
	"github.com/MyTechPlan/oc-client/internal/tree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpstreamStatusHeader marks a response whose content was replaced by an
// empty result because the hosting API failed.
const UpstreamStatusHeader = "X-Upstream-Status"

// LoginPath is where a form logout redirects.
const LoginPath = "/login"

// Dependencies are the collaborators the handlers need.
type Dependencies struct {
	Registry      tenant.Registry
	Repository    repository.Repository
	Trees         *tree.Fetcher
	Crons         *cron.Reader
	Previews      *preview.Renderer
	Gate          *auth.Gate
	Passwords     auth.PasswordChecker
	Decoder       *converter.RequestDecoder
	ErrorHandler  *apierrors.Handler
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	SecureCookies bool
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	registry      tenant.Registry
	repo          repository.Repository
	trees         *tree.Fetcher
	crons         *cron.Reader
	previews      *preview.Renderer
	gate          *auth.Gate
	passwords     auth.PasswordChecker
	decoder       *converter.RequestDecoder
	errorHandler  *apierrors.Handler
	metrics       *metrics.Metrics
	logger        *zap.Logger
	secureCookies bool
}

// NewHandlers creates a new Handlers instance. Trees and Crons default to
// readers over Repository; Decoder defaults to the standard body limit.
func NewHandlers(deps Dependencies) *Handlers {
	h := &Handlers{
		registry:      deps.Registry,
		repo:          deps.Repository,
		trees:         deps.Trees,
		crons:         deps.Crons,
		previews:      deps.Previews,
		gate:          deps.Gate,
		passwords:     deps.Passwords,
		decoder:       deps.Decoder,
		errorHandler:  deps.ErrorHandler,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		secureCookies: deps.SecureCookies,
	}
	if h.trees == nil {
		h.trees = tree.NewFetcher(deps.Repository)
	}
	if h.crons == nil {
		h.crons = cron.NewReader(deps.Repository, cron.DefaultJobsPath)
	}
	if h.decoder == nil {
		h.decoder = converter.NewRequestDecoder(0)
	}
	return h
}

// Login handles POST /api/auth. A JSON body logs in; a form body logs out.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	if converter.IsFormSubmission(r) {
		auth.ClearSessionCookie(w, h.secureCookies)
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}

	req, err := h.decoder.LoginRequest(w, r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), reqID)
		return
	}

	if !h.passwords.Check(req.Password) {
		h.recordLogin("failure")
		h.errorHandler.WriteErrorResponse(w, http.StatusUnauthorized, apierrors.ErrorCodeUnauthorized, apierrors.MessageInvalidPassword, reqID)
		return
	}

	token, expires, err := h.gate.Issue()
	if err != nil {
		h.logger.Error("failed to issue session", zap.Error(err), zap.String("request_id", reqID))
		h.errorHandler.WriteInternalError(w, "failed to create session", reqID)
		return
	}
	h.recordLogin("success")
	h.logger.Info("admin session issued",
		zap.Time("expires_at", expires),
		zap.String("request_id", reqID),
	)

	auth.SetSessionCookie(w, token, h.secureCookies)
	h.writeJSONResponse(w, http.StatusOK, converter.OKHTTPResponse{OK: true})
}

// Logout handles DELETE /api/auth.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	h.writeJSONResponse(w, http.StatusOK, converter.OKHTTPResponse{OK: true})
}

// ListTenants handles GET /api/tenants.
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, converter.TenantsHTTPResponse{Tenants: h.registry.List()})
}

// GetTenant handles GET /api/tenants/{id}. The tree and the job list are
// fetched concurrently.
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTenant(w, r)
	if !ok {
		return
	}

	var (
		treeRes tree.Result
		cronRes cron.Result
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		treeRes = h.trees.Fetch(gctx, t.Repo)
		return nil
	})
	g.Go(func() error {
		cronRes = h.crons.ReadJobs(gctx, t.Repo)
		return nil
	})
	_ = g.Wait()

	if treeRes.Failed() {
		h.degraded(w, r, "tree", t, "", treeRes.Err)
	}
	if cronRes.Failed() {
		h.degraded(w, r, "crons", t, h.crons.Path(), cronRes.Err)
	}

	h.writeJSONResponse(w, http.StatusOK, converter.TenantDetailResponse(t, treeRes.Forest, cronRes.Jobs))
}

// GetTree handles GET /api/tenants/{id}/files.
func (h *Handlers) GetTree(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTenant(w, r)
	if !ok {
		return
	}

	res := h.trees.Fetch(r.Context(), t.Repo)
	if res.Failed() {
		h.degraded(w, r, "tree", t, "", res.Err)
	}

	h.writeJSONResponse(w, http.StatusOK, converter.TreeResponse(t.ID, res.Forest))
}

// GetFile handles GET /api/tenants/{id}/files/{path}.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	t, filePath, ok := h.lookupFile(w, r)
	if !ok {
		return
	}

	f, ok := h.readFile(w, r, t, filePath)
	if !ok {
		return
	}

	h.writeJSONResponse(w, http.StatusOK, converter.FileResponse(f))
}

// UpdateFile handles PUT /api/tenants/{id}/files/{path}. Every failure,
// including a stale revision marker, is reported as UPDATE_FAILED.
func (h *Handlers) UpdateFile(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	t, filePath, ok := h.lookupFile(w, r)
	if !ok {
		return
	}

	req, err := h.decoder.UpdateFileRequest(w, r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), reqID)
		return
	}

	sha, err := h.repo.WriteFile(r.Context(), t.Repo, filePath, []byte(*req.Content), req.SHA, req.Message)
	if err != nil {
		fields := []zap.Field{
			zap.Error(err),
			zap.String("tenant_id", t.ID),
			zap.String("repo", t.Repo.String()),
			zap.String("path", filePath),
			zap.String("request_id", reqID),
		}
		if errors.Is(err, repository.ErrConflict) {
			h.logger.Warn("file update rejected: revision conflict", fields...)
		} else {
			h.logger.Error("file update failed", fields...)
		}
		h.errorHandler.WriteUpdateFailed(w, reqID)
		return
	}

	h.logger.Info("file updated",
		zap.String("tenant_id", t.ID),
		zap.String("path", filePath),
		zap.String("sha", sha),
		zap.String("request_id", reqID),
	)
	h.writeJSONResponse(w, http.StatusOK, converter.UpdateFileHTTPResponse{OK: true, SHA: sha})
}

// GetDirectory handles GET /api/tenants/{id}/directory?path=.
func (h *Handlers) GetDirectory(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTenant(w, r)
	if !ok {
		return
	}

	dirPath, err := converter.DirectoryPath(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), requestID(r))
		return
	}

	entries, err := h.repo.ListDirectory(r.Context(), t.Repo, dirPath)
	if err != nil {
		h.degraded(w, r, "directory", t, dirPath, err)
		entries = nil
	}

	h.writeJSONResponse(w, http.StatusOK, converter.DirectoryResponse(dirPath, entries))
}

// GetCrons handles GET /api/tenants/{id}/crons.
func (h *Handlers) GetCrons(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTenant(w, r)
	if !ok {
		return
	}

	res := h.crons.ReadJobs(r.Context(), t.Repo)
	if res.Failed() {
		h.degraded(w, r, "crons", t, h.crons.Path(), res.Err)
	}

	h.writeJSONResponse(w, http.StatusOK, converter.CronsResponse(t.ID, res.Jobs))
}

// GetPreview handles GET /api/tenants/{id}/preview/{path}.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	t, filePath, ok := h.lookupFile(w, r)
	if !ok {
		return
	}

	f, ok := h.readFile(w, r, t, filePath)
	if !ok {
		return
	}

	p, err := h.previews.Render(f.Path, f.Content)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to render preview of %s: %w", filePath, err))
		return
	}

	h.writeJSONResponse(w, http.StatusOK, converter.PreviewResponse(filePath, p))
}

func (h *Handlers) lookupTenant(w http.ResponseWriter, r *http.Request) (tenant.Tenant, bool) {
	t, ok := h.registry.Get(converter.TenantID(r))
	if !ok {
		h.errorHandler.WriteTenantNotFound(w, requestID(r))
	}
	return t, ok
}

func (h *Handlers) lookupFile(w http.ResponseWriter, r *http.Request) (tenant.Tenant, string, bool) {
	t, ok := h.lookupTenant(w, r)
	if !ok {
		return tenant.Tenant{}, "", false
	}
	filePath, err := converter.FilePath(r)
	if err != nil {
		h.errorHandler.WriteValidationError(w, err.Error(), requestID(r))
		return tenant.Tenant{}, "", false
	}
	return t, filePath, true
}

// readFile writes a 404 when the file is absent or the read fails. A read cut
// short by the request's own deadline or cancellation is reported as such.
func (h *Handlers) readFile(w http.ResponseWriter, r *http.Request, t tenant.Tenant, filePath string) (*repository.File, bool) {
	f, err := h.repo.ReadFile(r.Context(), t.Repo, filePath)
	if err == nil {
		return f, true
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
	case r.Context().Err() != nil:
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	default:
		h.degraded(w, r, "file", t, filePath, err)
	}
	h.errorHandler.WriteFileNotFound(w, requestID(r))
	return nil, false
}

// degraded records an upstream failure that the response hides behind an
// empty result.
func (h *Handlers) degraded(w http.ResponseWriter, r *http.Request, resource string, t tenant.Tenant, filePath string, err error) {
	w.Header().Set(UpstreamStatusHeader, "failed")
	if h.metrics != nil {
		h.metrics.RecordDegraded(resource)
	}
	_, code := apierrors.Classify(err)
	h.logger.Error("upstream read failed",
		zap.Error(err),
		zap.String("error_code", string(code)),
		zap.String("resource", resource),
		zap.String("tenant_id", t.ID),
		zap.String("repo", t.Repo.String()),
		zap.String("path", filePath),
		zap.String("request_id", requestID(r)),
	)
}

// requestID returns the id assigned by the RequestID middleware.
func requestID(r *http.Request) string {
	return middleware.RequestIDFromContext(r.Context())
}

func (h *Handlers) recordLogin(result string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(result)
	}
}

// writeJSONResponse writes a JSON response to the HTTP response writer.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
