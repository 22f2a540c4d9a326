package tenant_test

import (
	"context"
	"errors"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/testdb"
	"github.com/frahmantamala/dashboard-access/internal/tenant"
	tenantPostgres "github.com/frahmantamala/dashboard-access/internal/tenant/postgres"
	"github.com/frahmantamala/dashboard-access/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Tenant Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *tenant.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = testdb.Open()
		Expect(err).NotTo(HaveOccurred())

		deleter := tenant.NewDeleter(tenantPostgres.NewCascadeRepository(db), newPolicy(), nil, logger.Discard())
		service = tenant.NewService(tenantPostgres.NewTenantRepository(db), deleter, newPolicy(), logger.Discard())
	})

	AfterEach(func() {
		testdb.Close(db)
	})

	Describe("Create", func() {
		It("derives the slug from the name and defaults the status", func() {
			created, err := service.Create(ctx, tenant.TenantRequest{Name: "Acme Corp", Plan: "pro"})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Slug).To(Equal("acme-corp"))
			Expect(created.Status).To(Equal(tenant.DefaultStatus))
			Expect(created.DriveLink).To(BeNil())
		})

		It("rejects a duplicate slug", func() {
			_, err := service.Create(ctx, tenant.TenantRequest{Name: "Acme", Slug: "acme"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, tenant.TenantRequest{Name: "Other", Slug: "ACME"})
			Expect(errors.Is(err, internal.ErrDuplicateName)).To(BeTrue())
		})

		It("validates name and slug", func() {
			_, err := service.Create(ctx, tenant.TenantRequest{Name: " ", Slug: "bad slug"})
			Expect(internal.KindOf(err)).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Update", func() {
		It("replaces the attributes and keeps its own slug", func() {
			created, err := service.Create(ctx, tenant.TenantRequest{Name: "Acme", Slug: "acme"})
			Expect(err).NotTo(HaveOccurred())

			link := " https://drive.example/acme "
			updated, err := service.Update(ctx, created.ID, tenant.TenantRequest{
				Name:      "Acme Ltd",
				Slug:      "acme",
				Plan:      "enterprise",
				Status:    "paused",
				DriveLink: &link,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Acme Ltd"))
			Expect(updated.Plan).To(Equal("enterprise"))
			Expect(updated.Status).To(Equal("paused"))
			Expect(*updated.DriveLink).To(Equal("https://drive.example/acme"))
		})

		It("rejects a slug owned by another client", func() {
			_, err := service.Create(ctx, tenant.TenantRequest{Name: "Acme", Slug: "acme"})
			Expect(err).NotTo(HaveOccurred())
			other, err := service.Create(ctx, tenant.TenantRequest{Name: "Globex", Slug: "globex"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, other.ID, tenant.TenantRequest{Name: "Globex", Slug: "acme"})
			Expect(errors.Is(err, internal.ErrDuplicateName)).To(BeTrue())
		})

		It("requires a slug", func() {
			created, err := service.Create(ctx, tenant.TenantRequest{Name: "Acme"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, created.ID, tenant.TenantRequest{Name: "Acme"})
			Expect(internal.KindOf(err)).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("returns not found for an unknown client", func() {
			_, err := service.Update(ctx, "missing", tenant.TenantRequest{Name: "Ghost", Slug: "ghost"})
			Expect(errors.Is(err, internal.ErrTenantNotFound)).To(BeTrue())
		})
	})

	It("lists clients by name", func() {
		for _, name := range []string{"Zeta", "alpha", "Beta"} {
			_, err := service.Create(ctx, tenant.TenantRequest{Name: name})
			Expect(err).NotTo(HaveOccurred())
		}
		clients, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		names := []string{}
		for _, c := range clients {
			names = append(names, c.Name)
		}
		Expect(names).To(Equal([]string{"Beta", "Zeta", "alpha"}))
	})

	It("deletes through the cascade", func() {
		target := seedTenant(db, "acme", 1, 0, 1)
		report, err := service.Delete(ctx, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Dependents()).To(Equal(int64(3)))

		_, err = service.Get(ctx, target)
		Expect(errors.Is(err, internal.ErrTenantNotFound)).To(BeTrue())
	})
})
