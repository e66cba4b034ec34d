package converter

import (
	"github.com/MyTechPlan/oc-client/internal/cron"
	"github.com/MyTechPlan/oc-client/internal/preview"
	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/MyTechPlan/oc-client/internal/tenant"
	"github.com/MyTechPlan/oc-client/internal/tree"
)

// OKHTTPResponse acknowledges login and logout.
type OKHTTPResponse struct {
	OK bool `json:"ok"`
}

// UpdateFileHTTPResponse is returned after a successful write.
type UpdateFileHTTPResponse struct {
	OK  bool   `json:"ok"`
	SHA string `json:"sha"`
}

// TenantsHTTPResponse lists tenants.
type TenantsHTTPResponse struct {
	Tenants []tenant.Tenant `json:"tenants"`
}

// TreeHTTPResponse is a tenant's file tree.
type TreeHTTPResponse struct {
	TenantID string       `json:"tenant_id"`
	BasePath string       `json:"base_path"`
	Tree     []*tree.Node `json:"tree"`
}

// FileHTTPResponse is a file's text and revision marker.
type FileHTTPResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// DirectoryHTTPResponse is a single directory listing.
type DirectoryHTTPResponse struct {
	Path    string             `json:"path"`
	Entries []repository.Entry `json:"entries"`
}

// CronsHTTPResponse is a tenant's job list.
type CronsHTTPResponse struct {
	TenantID string     `json:"tenant_id"`
	Jobs     []cron.Job `json:"jobs"`
}

// PreviewHTTPResponse is a rendered file.
type PreviewHTTPResponse struct {
	Path     string       `json:"path"`
	Kind     preview.Kind `json:"kind"`
	Language string       `json:"language,omitempty"`
	HTML     string       `json:"html"`
}

// TenantDetailHTTPResponse is everything the tenant page shows at once.
type TenantDetailHTTPResponse struct {
	Tenant   tenant.Tenant `json:"tenant"`
	BasePath string        `json:"base_path"`
	Tree     []*tree.Node  `json:"tree"`
	Jobs     []cron.Job    `json:"jobs"`
}

// TreeResponse converts a built forest.
func TreeResponse(tenantID string, forest tree.Forest) *TreeHTTPResponse {
	return &TreeHTTPResponse{
		TenantID: tenantID,
		BasePath: forest.BasePath,
		Tree:     nodes(forest),
	}
}

// FileResponse converts a decoded file.
func FileResponse(f *repository.File) *FileHTTPResponse {
	return &FileHTTPResponse{
		Path:    f.Path,
		Content: string(f.Content),
		SHA:     f.SHA,
	}
}

// DirectoryResponse converts a directory listing.
func DirectoryResponse(dirPath string, entries []repository.Entry) *DirectoryHTTPResponse {
	if entries == nil {
		entries = []repository.Entry{}
	}
	return &DirectoryHTTPResponse{Path: dirPath, Entries: entries}
}

// CronsResponse converts a job list.
func CronsResponse(tenantID string, jobs []cron.Job) *CronsHTTPResponse {
	return &CronsHTTPResponse{TenantID: tenantID, Jobs: jobsOrEmpty(jobs)}
}

// PreviewResponse converts a rendered preview.
func PreviewResponse(filePath string, p preview.Preview) *PreviewHTTPResponse {
	return &PreviewHTTPResponse{
		Path:     filePath,
		Kind:     p.Kind,
		Language: p.Language,
		HTML:     p.HTML,
	}
}

// TenantDetailResponse combines a tenant with its tree and jobs.
func TenantDetailResponse(t tenant.Tenant, forest tree.Forest, jobs []cron.Job) *TenantDetailHTTPResponse {
	return &TenantDetailHTTPResponse{
		Tenant:   t,
		BasePath: forest.BasePath,
		Tree:     nodes(forest),
		Jobs:     jobsOrEmpty(jobs),
	}
}

func nodes(forest tree.Forest) []*tree.Node {
	if forest.Nodes == nil {
		return []*tree.Node{}
	}
	return forest.Nodes
}

func jobsOrEmpty(jobs []cron.Job) []cron.Job {
	if jobs == nil {
		return []cron.Job{}
	}
	return jobs
}
