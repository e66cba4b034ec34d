package tenant

import (
	"fmt"
	"os"

	"github.com/MyTechPlan/oc-client/internal/config"
	"gopkg.in/yaml.v3"
)

type tenantsFile struct {
	Tenants []config.TenantConfig `yaml:"tenants"`
}

// LoadFile reads tenants from a YAML file of the form
//
//	tenants:
//	  - id: enki
//	    name: Enki
//	    repo: MyTechPlan/taas-enki
func LoadFile(path string) ([]Tenant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants file: %w", err)
	}

	var f tenantsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tenants file: %w", err)
	}

	return FromConfig(f.Tenants)
}

// Load builds the registry from inline config tenants followed by those in
// cfg.TenantsFile, if set.
func Load(cfg *config.Config) (*StaticRegistry, error) {
	tenants, err := FromConfig(cfg.Tenants)
	if err != nil {
		return nil, err
	}

	if cfg.TenantsFile != "" {
		fromFile, err := LoadFile(cfg.TenantsFile)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, fromFile...)
	}

	return NewStaticRegistry(tenants)
}
