package permission

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	"gopkg.in/yaml.v3"
)

// Codes guarded by the HTTP surface. Every one of them is present in the default catalog.
const (
	CodeClientsView   = "clients.view"
	CodeClientsCreate = "clients.create"
	CodeClientsEdit   = "clients.edit"
	CodeClientsDelete = "clients.delete"

	CodeUsersView   = "users.view"
	CodeUsersCreate = "users.create"
	CodeUsersEdit   = "users.edit"
	CodeUsersDelete = "users.delete"

	CodeRolesView   = "roles.view"
	CodeRolesCreate = "roles.create"
	CodeRolesEdit   = "roles.edit"
	CodeRolesDelete = "roles.delete"

	CodeSettingsManage = "settings.manage"
)

//go:embed default_catalog.yml
var defaultCatalog []byte

type Permission struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
}

// Definition is one catalog entry as written in the seed file.
type Definition struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
}

type catalogFile struct {
	Permissions []Definition `yaml:"permissions"`
}

// LoadDefinitions reads a catalog seed file. An empty path selects the built-in catalog.
func LoadDefinitions(path string) ([]Definition, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = raw
	}
	return ParseDefinitions(data)
}

func ParseDefinitions(data []byte) ([]Definition, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Permissions) == 0 {
		return nil, errors.New("catalog has no permissions")
	}

	seen := make(map[string]struct{}, len(file.Permissions))
	for i, def := range file.Permissions {
		def.Code = strings.TrimSpace(def.Code)
		def.Category = strings.TrimSpace(def.Category)
		if def.Code == "" || def.Category == "" {
			return nil, fmt.Errorf("catalog entry %d: code and category are required", i)
		}
		if def.Name == "" {
			def.Name = def.Code
		}
		if _, dup := seen[def.Code]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate code %q", i, def.Code)
		}
		seen[def.Code] = struct{}{}
		file.Permissions[i] = def
	}
	return file.Permissions, nil
}

func FromDataModel(p *permissionDatamodel.Permission) Permission {
	return Permission{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
	}
}

func (d Definition) ToDataModel() *permissionDatamodel.Permission {
	return &permissionDatamodel.Permission{
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
	}
}
