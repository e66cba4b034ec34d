// Package tenant holds the read-only set of tenants the admin service manages.
package tenant

import (
	"errors"
	"fmt"

	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/MyTechPlan/oc-client/internal/repository"
)

// ErrDuplicateID is returned when two tenants share an id.
var ErrDuplicateID = errors.New("duplicate tenant id")

// Tenant is one managed deployment and the repository that holds its files.
type Tenant struct {
	ID   string                `json:"id"`
	Name string                `json:"name"`
	Repo repository.Coordinate `json:"repo"`
}

// Registry looks tenants up by exact id.
type Registry interface {
	Get(id string) (Tenant, bool)
	List() []Tenant
}

// StaticRegistry is an immutable Registry built once at startup.
type StaticRegistry struct {
	tenants []Tenant
	byID    map[string]Tenant
}

var _ Registry = (*StaticRegistry)(nil)

// NewStaticRegistry builds a registry that lists tenants in the given order.
func NewStaticRegistry(tenants []Tenant) (*StaticRegistry, error) {
	r := &StaticRegistry{
		tenants: make([]Tenant, 0, len(tenants)),
		byID:    make(map[string]Tenant, len(tenants)),
	}
	for _, t := range tenants {
		if t.ID == "" {
			return nil, errors.New("tenant id is required")
		}
		if _, ok := r.byID[t.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		r.byID[t.ID] = t
		r.tenants = append(r.tenants, t)
	}
	return r, nil
}

// Get returns the tenant with the given id.
func (r *StaticRegistry) Get(id string) (Tenant, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// List returns a copy of all tenants.
func (r *StaticRegistry) List() []Tenant {
	out := make([]Tenant, len(r.tenants))
	copy(out, r.tenants)
	return out
}

// FromConfig converts configured tenants. A missing name defaults to the id.
func FromConfig(cfgs []config.TenantConfig) ([]Tenant, error) {
	tenants := make([]Tenant, 0, len(cfgs))
	for _, c := range cfgs {
		coord, err := repository.ParseCoordinate(c.Repo)
		if err != nil {
			return nil, fmt.Errorf("tenant %q: %w", c.ID, err)
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		tenants = append(tenants, Tenant{ID: c.ID, Name: name, Repo: coord})
	}
	return tenants, nil
}
