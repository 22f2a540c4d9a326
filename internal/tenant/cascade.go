package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/dashboard-access/internal"
	"github.com/frahmantamala/dashboard-access/internal/core/events"
	"github.com/frahmantamala/dashboard-access/internal/core/storecall"
)

// Step names one table emptied by the cascade.
type Step string

const (
	StepNotices  Step = "notices"
	StepAccesses Step = "accesses"
	StepSessions Step = "sessions"
	StepUsers    Step = "users"
	StepTenant   Step = "tenant"
)

// DependentSteps is the fixed order dependents are removed in. Each step's rows reference
// rows removed by a later step, so reordering breaks foreign keys.
var DependentSteps = []Step{StepNotices, StepAccesses, StepSessions, StepUsers}

type State string

const (
	StateRequested          State = "requested"
	StateDeletingDependents State = "deleting_dependents"
	StateDeletingTenant     State = "deleting_tenant"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// Report describes one cascade run. Removed counts are only meaningful once State is Done.
type Report struct {
	TenantID   string         `json:"tenant_id"`
	State      State          `json:"state"`
	Step       Step           `json:"step,omitempty"`
	Removed    map[Step]int64 `json:"removed"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Dependents counts removed rows excluding the tenant itself.
func (r *Report) Dependents() int64 {
	var total int64
	for _, step := range DependentSteps {
		total += r.Removed[step]
	}
	return total
}

func (r *Report) enter(state State, step Step) {
	r.State = state
	r.Step = step
}

// StepError reports the cascade step that failed. The transaction was rolled back.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("cascade step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CascadeTx is the store seen from inside the cascade transaction.
type CascadeTx interface {
	TenantExists(ctx context.Context, tenantID string) (bool, error)
	DeleteStep(ctx context.Context, step Step, tenantID string) (int64, error)
}

type CascadeStore interface {
	// InTx commits when fn returns nil and rolls back otherwise. A failed rollback is
	// reported as PartialFailure.
	InTx(ctx context.Context, fn func(tx CascadeTx) error) error
}

// Deleter removes a tenant and everything it owns in one transaction.
type Deleter struct {
	store  CascadeStore
	policy storecall.Policy
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewDeleter(store CascadeStore, policy storecall.Policy, publisher events.Publisher, logger *slog.Logger) *Deleter {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Deleter{
		store:  store,
		policy: policy,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

// Delete runs Requested → DeletingDependents(step) → DeletingTenant → Done, landing in Failed
// on any error. The whole run is retried from the start at most once on a transient store error.
func (d *Deleter) Delete(ctx context.Context, tenantID string) (*Report, error) {
	report := &Report{TenantID: tenantID, State: StateRequested, StartedAt: d.now()}

	err := d.policy.Do(ctx, "tenant.cascade_delete", func(ctx context.Context) error {
		report.enter(StateRequested, "")
		report.Removed = make(map[Step]int64, len(DependentSteps)+1)
		return d.store.InTx(ctx, func(tx CascadeTx) error {
			return d.run(ctx, tx, report)
		})
	})
	report.FinishedAt = d.now()

	if err != nil {
		failedAt := report.Step
		report.enter(StateFailed, failedAt)
		switch {
		case errors.Is(err, internal.ErrTenantNotFound):
			return report, err
		case errors.Is(err, internal.ErrPartialFailure):
			d.logger.ErrorContext(ctx, "tenant cascade left partial state, manual reconciliation required",
				"tenant_id", tenantID, "step", failedAt, "error", err)
		default:
			d.logger.ErrorContext(ctx, "tenant cascade rolled back", "tenant_id", tenantID, "step", failedAt, "error", err)
		}
		return report, err
	}

	report.enter(StateDone, "")
	d.logger.InfoContext(ctx, "tenant deleted", "tenant_id", tenantID, "dependents", report.Dependents())
	event := events.NewAuditEvent(events.EventTypeTenantDeleted, internal.ActorIDFromContext(ctx), tenantID, map[string]interface{}{
		"notices":  report.Removed[StepNotices],
		"accesses": report.Removed[StepAccesses],
		"sessions": report.Removed[StepSessions],
		"users":    report.Removed[StepUsers],
	})
	if pubErr := d.events.Publish(ctx, event); pubErr != nil {
		d.logger.WarnContext(ctx, "failed to publish audit event", "event_type", events.EventTypeTenantDeleted, "error", pubErr)
	}
	return report, nil
}

func (d *Deleter) run(ctx context.Context, tx CascadeTx, report *Report) error {
	exists, err := tx.TenantExists(ctx, report.TenantID)
	if err != nil {
		return err
	}
	if !exists {
		return internal.ErrTenantNotFound
	}

	for _, step := range DependentSteps {
		report.enter(StateDeletingDependents, step)
		n, err := tx.DeleteStep(ctx, step, report.TenantID)
		if err != nil {
			return &StepError{Step: step, Err: err}
		}
		report.Removed[step] = n
	}

	report.enter(StateDeletingTenant, StepTenant)
	n, err := tx.DeleteStep(ctx, StepTenant, report.TenantID)
	if err != nil {
		return &StepError{Step: StepTenant, Err: err}
	}
	if n == 0 {
		return internal.ErrTenantNotFound
	}
	report.Removed[StepTenant] = n
	return nil
}
