package permission

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/frahmantamala/dashboard-access/internal"
	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*permissionDatamodel.Permission, error)
	Upsert(ctx context.Context, perms []*permissionDatamodel.Permission) error
}

// Catalog is the process-wide permission universe. It is loaded once at startup and
// replaced wholesale on Reload; readers never hit the store.
type Catalog struct {
	repo   RepositoryAPI
	policy storecall.Policy
	events events.Publisher
	logger *slog.Logger

	mu      sync.RWMutex
	ordered []Permission
	byID    map[string]Permission
	byCode  map[string]Permission
	loaded  bool
}

func NewCatalog(repo RepositoryAPI, policy storecall.Policy, publisher events.Publisher, logger *slog.Logger) *Catalog {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Catalog{
		repo:   repo,
		policy: policy,
		events: publisher,
		logger: logger,
		byID:   map[string]Permission{},
		byCode: map[string]Permission{},
	}
}

// Reload replaces the in-memory catalog with the store's current contents.
func (c *Catalog) Reload(ctx context.Context) error {
	rows, err := storecall.Get(ctx, c.policy, "permission.list", c.repo.List)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to load permission catalog", "error", err)
		return err
	}

	ordered := make([]Permission, 0, len(rows))
	byID := make(map[string]Permission, len(rows))
	byCode := make(map[string]Permission, len(rows))
	for _, row := range rows {
		p := FromDataModel(row)
		ordered = append(ordered, p)
		byID[p.ID] = p
		byCode[p.Code] = p
	}
	sortPermissions(ordered)

	c.mu.Lock()
	c.ordered = ordered
	c.byID = byID
	c.byCode = byCode
	c.loaded = true
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "permission catalog loaded", "count", len(ordered))
	event := events.NewAuditEvent(events.EventTypeCatalogReloaded, internal.ActorIDFromContext(ctx), "", map[string]interface{}{"count": len(ordered)})
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to publish audit event", "event_type", events.EventTypeCatalogReloaded, "error", err)
	}
	return nil
}

// Seed upserts the given definitions by code and reloads.
func (c *Catalog) Seed(ctx context.Context, defs []Definition) error {
	rows := make([]*permissionDatamodel.Permission, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, d.ToDataModel())
	}
	if err := c.policy.Do(ctx, "permission.upsert", func(ctx context.Context) error {
		return c.repo.Upsert(ctx, rows)
	}); err != nil {
		return err
	}
	return c.Reload(ctx)
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// List returns every permission ordered by category then name.
func (c *Catalog) List() []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Permission, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Grouped returns the catalog keyed by category, each group in list order.
func (c *Catalog) Grouped() map[string][]Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	grouped := make(map[string][]Permission)
	for _, p := range c.ordered {
		grouped[p.Category] = append(grouped[p.Category], p)
	}
	return grouped
}

func (c *Catalog) ByID(id string) (Permission, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) ByCode(code string) (Permission, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byCode[code]
	return p, ok
}

// Partition splits ids into catalog members and strangers, dropping blanks and duplicates.
func (c *Catalog) Partition(ids []string) (known, unknown []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := c.byID[id]; ok {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}

func sortPermissions(perms []Permission) {
	sort.SliceStable(perms, func(i, j int) bool {
		if perms[i].Category != perms[j].Category {
			return strings.ToLower(perms[i].Category) < strings.ToLower(perms[j].Category)
		}
		return strings.ToLower(perms[i].Name) < strings.ToLower(perms[j].Name)
	})
}
