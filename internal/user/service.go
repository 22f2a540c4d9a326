package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/dashboard-access/internal"
	userDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/user"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/frahmantamala/dashboard-access/internal/role"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	// List returns users newest first.
	List(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetPrincipal(ctx context.Context, id string) (*Principal, error)
	TenantExists(ctx context.Context, tenantID string) (bool, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User, withPassword bool) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// Delete removes the user and its sessions together.
	Delete(ctx context.Context, id string) error
}

type RoleLookup interface {
	GetByName(ctx context.Context, name string) (*role.Role, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

type Service struct {
	repo        RepositoryAPI
	roles       RoleLookup
	hasher      PasswordHasher
	policy      storecall.Policy
	events      events.Publisher
	defaultRole string
	admins      role.AdminNames
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleLookup, hasher PasswordHasher, policy storecall.Policy, publisher events.Publisher, defaultRole string, admins role.AdminNames, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if defaultRole == "" {
		defaultRole = internal.DefaultDefaultRole
	}
	return &Service{
		repo:        repo,
		roles:       roles,
		hasher:      hasher,
		policy:      policy,
		events:      publisher,
		defaultRole: defaultRole,
		admins:      admins,
		logger:      logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	return storecall.Get(ctx, s.policy, "user.list", s.repo.List)
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return storecall.Get(ctx, s.policy, "user.get", func(ctx context.Context) (*User, error) {
		return s.repo.GetByID(ctx, id)
	})
}

// FindByEmail matches case-insensitively and includes the stored password hash.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return storecall.Get(ctx, s.policy, "user.find_by_email", func(ctx context.Context) (*User, error) {
		return s.repo.GetByEmail(ctx, email)
	})
}

// FindPrincipal loads the user joined with its role and client.
func (s *Service) FindPrincipal(ctx context.Context, id string) (*Principal, error) {
	return storecall.Get(ctx, s.policy, "user.find_principal", func(ctx context.Context) (*Principal, error) {
		return s.repo.GetPrincipal(ctx, id)
	})
}

func (s *Service) UpgradePasswordHash(ctx context.Context, id, hash string) error {
	return s.policy.Do(ctx, "user.upgrade_password_hash", func(ctx context.Context) error {
		return s.repo.UpdatePasswordHash(ctx, id, hash)
	})
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.normalize()
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	roleName := req.Role
	if roleName == "" {
		roleName = s.defaultRole
	}
	r, err := s.resolveRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	tenantID, err := s.resolveTenant(ctx, r, req.ClientID)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	m := &userDatamodel.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       r.ID,
		TenantID:     tenantID,
	}
	if err := s.policy.Do(ctx, "user.create", func(ctx context.Context) error {
		return s.repo.Create(ctx, m)
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", m.ID, "role", r.Name)
	s.publish(ctx, events.EventTypeUserCreated, m.ID, map[string]interface{}{"role": r.Name})
	return s.Get(ctx, m.ID)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	req.normalize()
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	roleName := req.Role
	if roleName == "" {
		roleName = current.RoleName
	}
	r, err := s.resolveRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	clientID := current.TenantID
	if req.ClientID != nil {
		clientID = blankToNil(req.ClientID)
	}
	tenantID, err := s.resolveTenant(ctx, r, clientID)
	if err != nil {
		return nil, err
	}

	m := &userDatamodel.User{
		ID:       id,
		Name:     req.Name,
		Email:    req.Email,
		RoleID:   r.ID,
		TenantID: tenantID,
	}
	if req.Password != nil {
		if m.PasswordHash, err = s.hasher.Hash(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.policy.Do(ctx, "user.update", func(ctx context.Context) error {
		return s.repo.Update(ctx, m, req.Password != nil)
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", id, "role", r.Name, "password_changed", req.Password != nil)
	s.publish(ctx, events.EventTypeUserUpdated, id, map[string]interface{}{"role": r.Name})
	return s.Get(ctx, id)
}

// Delete refuses to let the acting user remove its own account.
func (s *Service) Delete(ctx context.Context, id string) error {
	if actor := internal.ActorIDFromContext(ctx); actor != "" && actor == id {
		return internal.ErrSelfDeletion
	}
	if err := s.policy.Do(ctx, "user.delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	s.publish(ctx, events.EventTypeUserDeleted, id, nil)
	return nil
}

func (s *Service) resolveRole(ctx context.Context, name string) (*role.Role, error) {
	r, err := s.roles.GetByName(ctx, name)
	if errors.Is(err, internal.ErrRoleNotFound) {
		return nil, internal.NewValidationFieldError("role", "unknown role "+name, internal.ErrCodeRoleNotFound)
	}
	return r, err
}

// resolveTenant drops the client for admin roles and checks that any other client exists.
func (s *Service) resolveTenant(ctx context.Context, r *role.Role, tenantID *string) (*string, error) {
	if s.admins.IsAdmin(r) || tenantID == nil {
		return nil, nil
	}
	exists, err := storecall.Get(ctx, s.policy, "tenant.exists", func(ctx context.Context) (bool, error) {
		return s.repo.TenantExists(ctx, *tenantID)
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.NewValidationFieldError("client_id", "unknown client", internal.ErrCodeTenantNotFound)
	}
	return tenantID, nil
}

func (s *Service) publish(ctx context.Context, eventType, subject string, data map[string]interface{}) {
	event := events.NewAuditEvent(eventType, internal.ActorIDFromContext(ctx), subject, data)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event", "event_type", eventType, "error", err)
	}
}
