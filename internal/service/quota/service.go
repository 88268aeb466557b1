package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

type usageStore interface {
	Used(ctx context.Context, key string, day time.Time) (int, error)
	Increment(ctx context.Context, key string, day time.Time) (int, error)
}

// Limits are the daily verdict allotments.
type Limits struct {
	Anonymous     int
	Authenticated int
}

// Ledger tracks daily verdict spend per identity. The window is the UTC
// calendar day; counters only ever grow within it.
type Ledger struct {
	usage  usageStore
	limits Limits
	now    func() time.Time
	log    *slog.Logger
}

// NewLedger creates a new quota ledger.
func NewLedger(log *slog.Logger, usage usageStore, limits Limits) *Ledger {
	return &Ledger{
		usage:  usage,
		limits: limits,
		now:    time.Now,
		log:    log.With("service", "quota"),
	}
}

// Day returns the UTC day window containing t.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LimitFor returns the daily allotment of an identity.
func (l *Ledger) LimitFor(id domain.Identity) int {
	if id.Authenticated() {
		return l.limits.Authenticated
	}
	return l.limits.Anonymous
}

// Check reports whether id may spend a verdict today.
// Unknown identities have the full allotment.
func (l *Ledger) Check(ctx context.Context, id domain.Identity) (domain.QuotaStatus, error) {
	used, err := l.usage.Used(ctx, id.Key(), Day(l.now()))
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("quota.Check: %w", err)
	}
	return domain.NewQuotaStatus(used, l.LimitFor(id)), nil
}

// CheckAll runs the joint check: ok is true only when every identity can
// afford a verdict. Statuses are returned in argument order.
func (l *Ledger) CheckAll(ctx context.Context, ids ...domain.Identity) (bool, []domain.QuotaStatus, error) {
	ok := true
	statuses := make([]domain.QuotaStatus, 0, len(ids))
	for _, id := range ids {
		st, err := l.Check(ctx, id)
		if err != nil {
			return false, nil, err
		}
		ok = ok && st.CanUse
		statuses = append(statuses, st)
	}
	return ok, statuses, nil
}

// Record spends one verdict for id in today's window.
func (l *Ledger) Record(ctx context.Context, id domain.Identity) (domain.QuotaStatus, error) {
	used, err := l.usage.Increment(ctx, id.Key(), Day(l.now()))
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("quota.Record: %w", err)
	}

	st := domain.NewQuotaStatus(used, l.LimitFor(id))
	l.log.DebugContext(ctx, "quota recorded",
		slog.Bool("authenticated", id.Authenticated()),
		slog.Int("used", st.Used),
		slog.Int("limit", st.Limit),
	)
	return st, nil
}
