package tenant

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/dashboard-access/internal/core/common/validation"
	tenantDatamodel "github.com/frahmantamala/dashboard-access/internal/core/datamodel/tenant"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*tenantDatamodel.Tenant, error)
	GetByID(ctx context.Context, id string) (*tenantDatamodel.Tenant, error)
	Create(ctx context.Context, t *tenantDatamodel.Tenant) error
	Update(ctx context.Context, t *tenantDatamodel.Tenant) error
}

type CascadeDeleter interface {
	Delete(ctx context.Context, tenantID string) (*Report, error)
}

type Service struct {
	repo    RepositoryAPI
	deleter CascadeDeleter
	policy  storecall.Policy
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, deleter CascadeDeleter, policy storecall.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		deleter: deleter,
		policy:  policy,
		logger:  logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Tenant, error) {
	rows, err := storecall.Get(ctx, s.policy, "tenant.list", s.repo.List)
	if err != nil {
		return nil, err
	}
	out := make([]*Tenant, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	row, err := storecall.Get(ctx, s.policy, "tenant.get", func(ctx context.Context) (*tenantDatamodel.Tenant, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, req TenantRequest) (*Tenant, error) {
	if req.Slug == "" {
		req.Slug = validation.NormalizeSlug(req.Name)
	}
	req.normalize()
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	row := toDataModel(uuid.NewString(), req)
	if err := s.policy.Do(ctx, "tenant.create", func(ctx context.Context) error {
		return s.repo.Create(ctx, row)
	}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "client created", "tenant_id", row.ID, "slug", row.Slug)
	return s.Get(ctx, row.ID)
}

// Update replaces every attribute. The slug stays unique across clients.
func (s *Service) Update(ctx context.Context, id string, req TenantRequest) (*Tenant, error) {
	req.normalize()
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	row := toDataModel(id, req)
	if err := s.policy.Do(ctx, "tenant.update", func(ctx context.Context) error {
		return s.repo.Update(ctx, row)
	}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "client updated", "tenant_id", id, "slug", row.Slug)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) (*Report, error) {
	return s.deleter.Delete(ctx, id)
}

func toDataModel(id string, req TenantRequest) *tenantDatamodel.Tenant {
	return &tenantDatamodel.Tenant{
		ID:        id,
		Name:      req.Name,
		Slug:      req.Slug,
		Plan:      req.Plan,
		Status:    req.Status,
		DriveLink: req.DriveLink,
		Notes:     req.Notes,
	}
}
