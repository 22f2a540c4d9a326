package role

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/dashboard-access/internal"
	permissionDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/permission"
	roleDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/role"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/permission"
)

type RepositoryAPI interface {
	// List returns system roles first, then the rest by case-folded name.
	List(ctx context.Context) ([]*roleDatamodel.Role, error)
	GetByID(ctx context.Context, id string) (*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	Permissions(ctx context.Context, roleIDs []string) (map[string][]*permissionDatamodel.Permission, error)
	PermissionCodes(ctx context.Context, roleID string) ([]string, error)
	Create(ctx context.Context, role *roleDatamodel.Role, permissionIDs []string) error
	Update(ctx context.Context, role *roleDatamodel.Role, permissionIDs []string) error
	Delete(ctx context.Context, id string) error
	// MarkSystem flags an existing role as system, and as superuser when asked.
	MarkSystem(ctx context.Context, id string, superuser bool) error
}

// CatalogAPI is the slice of the permission catalog the registry needs to vet permission ids.
type CatalogAPI interface {
	Partition(ids []string) (known, unknown []string)
}

type Service struct {
	repo          RepositoryAPI
	catalog       CatalogAPI
	policy        storecall.Policy
	events        events.Publisher
	unknownPolicy string
	logger        *slog.Logger
}

func NewService(repo RepositoryAPI, catalog CatalogAPI, policy storecall.Policy, publisher events.Publisher, unknownPolicy string, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if unknownPolicy == "" {
		unknownPolicy = internal.UnknownPermissionIgnore
	}
	return &Service{
		repo:          repo,
		catalog:       catalog,
		policy:        policy,
		events:        publisher,
		unknownPolicy: unknownPolicy,
		logger:        logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := storecall.Get(ctx, s.policy, "role.list", s.repo.List)
	if err != nil {
		return nil, err
	}
	return s.withPermissions(ctx, rows)
}

func (s *Service) Get(ctx context.Context, id string) (*Role, error) {
	row, err := storecall.Get(ctx, s.policy, "role.get", func(ctx context.Context) (*roleDatamodel.Role, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	roles, err := s.withPermissions(ctx, []*roleDatamodel.Role{row})
	if err != nil {
		return nil, err
	}
	return roles[0], nil
}

// GetByName matches case-insensitively. Permissions are not loaded.
func (s *Service) GetByName(ctx context.Context, name string) (*Role, error) {
	row, err := storecall.Get(ctx, s.policy, "role.get_by_name", func(ctx context.Context) (*roleDatamodel.Role, error) {
		return s.repo.GetByName(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return FromDataModel(row, nil), nil
}

// PermissionCodes reads the role's grants straight from the store on every call.
func (s *Service) PermissionCodes(ctx context.Context, roleID string) ([]string, error) {
	return storecall.Get(ctx, s.policy, "role.permission_codes", func(ctx context.Context) ([]string, error) {
		return s.repo.PermissionCodes(ctx, roleID)
	})
}

func (s *Service) Create(ctx context.Context, req RoleRequest) (*Role, error) {
	req.normalize()
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}
	permissionIDs, err := s.vetPermissions(ctx, req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{
		Name:        req.Name,
		NameKey:     NameKey(req.Name),
		Description: req.Description,
		Color:       req.color(),
	}
	if err := s.policy.Do(ctx, "role.create", func(ctx context.Context) error {
		return s.repo.Create(ctx, row, permissionIDs)
	}); err != nil {
		if !errors.Is(err, internal.ErrDuplicateName) {
			s.logger.ErrorContext(ctx, "failed to create role", "name", req.Name, "error", err)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "role created", "role_id", row.ID, "name", row.Name, "permissions", len(permissionIDs))
	s.publish(ctx, events.EventTypeRoleCreated, row.ID, map[string]interface{}{"name": row.Name})
	return s.Get(ctx, row.ID)
}

// Update replaces name, description, color and the whole permission set. System roles are editable.
func (s *Service) Update(ctx context.Context, id string, req RoleRequest) (*Role, error) {
	req.normalize()
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}
	permissionIDs, err := s.vetPermissions(ctx, req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{
		ID:          id,
		Name:        req.Name,
		NameKey:     NameKey(req.Name),
		Description: req.Description,
		Color:       req.color(),
	}
	if err := s.policy.Do(ctx, "role.update", func(ctx context.Context) error {
		return s.repo.Update(ctx, row, permissionIDs)
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "role updated", "role_id", id, "name", row.Name, "permissions", len(permissionIDs))
	s.publish(ctx, events.EventTypeRoleUpdated, id, map[string]interface{}{"name": row.Name})
	return s.Get(ctx, id)
}

// EnsureSystemRole creates a protected role unless one with the same case-folded name exists.
// An existing role keeps its grants and description but gains the system flag, and the superuser
// flag when asked.
func (s *Service) EnsureSystemRole(ctx context.Context, name, description string, superuser bool, permissionIDs []string) (*Role, bool, error) {
	existing, err := s.GetByName(ctx, name)
	if err == nil {
		if existing.IsSystem && (existing.IsSuperuser || !superuser) {
			return existing, false, nil
		}
		if err := s.policy.Do(ctx, "role.mark_system", func(ctx context.Context) error {
			return s.repo.MarkSystem(ctx, existing.ID, superuser)
		}); err != nil {
			return nil, false, err
		}
		s.logger.InfoContext(ctx, "system role flagged", "role_id", existing.ID, "name", existing.Name, "superuser", superuser)
		s.publish(ctx, events.EventTypeRoleUpdated, existing.ID, map[string]interface{}{"name": existing.Name, "system": true, "superuser": superuser})
		updated, err := s.Get(ctx, existing.ID)
		return updated, false, err
	}
	if !errors.Is(err, internal.ErrRoleNotFound) {
		return nil, false, err
	}

	known, _ := s.catalog.Partition(permissionIDs)
	row := &roleDatamodel.Role{
		Name:        name,
		NameKey:     NameKey(name),
		Description: &description,
		Color:       DefaultColor,
		IsSystem:    true,
		IsSuperuser: superuser,
	}
	if err := s.policy.Do(ctx, "role.ensure_system", func(ctx context.Context) error {
		return s.repo.Create(ctx, row, known)
	}); err != nil {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "system role created", "role_id", row.ID, "name", name, "superuser", superuser)
	s.publish(ctx, events.EventTypeRoleCreated, row.ID, map[string]interface{}{"name": name, "system": true})
	created, err := s.Get(ctx, row.ID)
	return created, true, err
}

// Delete fails with NotFound, SystemRoleProtected or InUse, checked in that order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.policy.Do(ctx, "role.delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		s.logger.InfoContext(ctx, "role delete refused", "role_id", id, "code", internal.KindOf(err))
		return err
	}

	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	s.publish(ctx, events.EventTypeRoleDeleted, id, nil)
	return nil
}

// vetPermissions drops blanks and duplicates, then applies the unknown-id policy.
func (s *Service) vetPermissions(ctx context.Context, ids []string) ([]string, error) {
	known, unknown := s.catalog.Partition(ids)
	if len(unknown) == 0 {
		return known, nil
	}
	if s.unknownPolicy == internal.UnknownPermissionReject {
		return nil, internal.NewValidationFieldError("permissions", "unknown permission ids: "+strings.Join(unknown, ", "), internal.ErrCodePermissionNotFound)
	}
	s.logger.WarnContext(ctx, "ignoring unknown permission ids", "ids", unknown)
	return known, nil
}

func (s *Service) withPermissions(ctx context.Context, rows []*roleDatamodel.Role) ([]*Role, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	grants, err := storecall.Get(ctx, s.policy, "role.permissions", func(ctx context.Context) (map[string][]*permissionDatamodel.Permission, error) {
		return s.repo.Permissions(ctx, ids)
	})
	if err != nil {
		return nil, err
	}

	roles := make([]*Role, 0, len(rows))
	for _, r := range rows {
		perms := make([]permission.Permission, 0, len(grants[r.ID]))
		for _, p := range grants[r.ID] {
			perms = append(perms, permission.FromDataModel(p))
		}
		roles = append(roles, FromDataModel(r, perms))
	}
	return roles, nil
}

func (s *Service) publish(ctx context.Context, eventType, subject string, data map[string]interface{}) {
	event := events.NewAuditEvent(eventType, internal.ActorIDFromContext(ctx), subject, data)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event", "event_type", eventType, "error", err)
	}
}
