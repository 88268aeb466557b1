package dispute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/whosright-backend/internal/adapter/memory"
	"github.com/heartmarshall/whosright-backend/internal/config"
	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/service/quota"
	"github.com/heartmarshall/whosright-backend/pkg/ctxutil"
)

//go:generate moq -out generator_mock_test.go -pkg dispute . generator
//go:generate moq -out quota_gate_mock_test.go -pkg dispute . quotaGate

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() config.CaseConfig {
	return config.CaseConfig{
		ResponseWindow:    48 * time.Hour,
		ArgumentMinLen:    20,
		ArgumentMaxLen:    5000,
		NameMaxLen:        60,
		MaxEvidenceItems:  5,
		EvidenceItemMax:   1000,
		MaxEvidenceImages: 3,
		CodeAttempts:      8,
	}
}

type fixture struct {
	store  *memory.Store
	ledger *quota.Ledger
	gen    *generatorMock
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ledger := quota.NewLedger(testLogger, store.Usage(), quota.Limits{Anonymous: 1, Authenticated: 5})
	gen := &generatorMock{EnqueueFunc: func(context.Context, uuid.UUID) error { return nil }}
	svc := NewService(testLogger, store.Cases(), store.Verdicts(), store.Transitions(), store.Stats(),
		ledger, gen, testConfig(), nil)
	return &fixture{store: store, ledger: ledger, gen: gen, svc: svc}
}

// as returns a context acting as an anonymous client at ip.
func as(ip string) context.Context {
	return ctxutil.WithClientIP(context.Background(), ip)
}

func asUser(id uuid.UUID, ip string) context.Context {
	return ctxutil.WithUserID(as(ip), id)
}

func validCreate() CreateCaseInput {
	return CreateCaseInput{
		Name:     "Alice",
		Argument: "I paid for the last three dinners in a row.",
		Category: domain.CategoryMoney,
	}
}

func validResponse() ResponseInput {
	return ResponseInput{
		Name:     "Bob",
		Argument: "You invited me every time and insisted on paying.",
	}
}

func (f *fixture) openCase(t *testing.T) *domain.Case {
	t.Helper()
	c, err := f.svc.CreateCase(as("192.0.2.1"), validCreate())
	require.NoError(t, err)
	return c
}

func (f *fixture) statuses(t *testing.T, c *domain.Case) []domain.CaseStatus {
	t.Helper()
	history, err := f.store.Transitions().ListByCase(context.Background(), c.ID)
	require.NoError(t, err)
	out := make([]domain.CaseStatus, 0, len(history))
	for _, tr := range history {
		out = append(out, tr.To)
	}
	return out
}

// ---------------------------------------------------------------------------
// CreateCase
// ---------------------------------------------------------------------------

func TestCreateCase_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	in := validCreate()
	in.Name = "  Alice   Smith "
	in.Evidence = []string{" receipt #1 ", "", "receipt #2"}

	c, err := f.svc.CreateCase(as("192.0.2.1"), in)
	require.NoError(t, err)

	assert.Regexp(t, `^WR-\d{4}-\d{4}$`, c.Code)
	assert.Equal(t, domain.CaseStatusPendingResponse, c.Status)
	assert.Equal(t, domain.ToneNeutral, c.Tone)
	assert.Equal(t, "Alice Smith", c.PartyA.Name)
	assert.Equal(t, []string{"receipt #1", "receipt #2"}, c.PartyA.Evidence)
	assert.Nil(t, c.PartyB)
	assert.WithinDuration(t, c.CreatedAt.Add(48*time.Hour), c.ExpiresAt, time.Second)
	assert.Equal(t, domain.HashIP("192.0.2.1"), c.PartyA.Identity.IPHash)
	assert.Equal(t, []domain.CaseStatus{domain.CaseStatusPendingResponse}, f.statuses(t, c))

	// Creating does not spend quota.
	st, err := f.ledger.Check(as("192.0.2.1"), c.PartyA.Identity)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Used)
}

func TestCreateCase_ArgumentLengthBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		argument string
		wantErr  bool
	}{
		{"19 chars", strings.Repeat("a", 19), true},
		{"20 chars", strings.Repeat("a", 20), false},
		{"20 runes multibyte", strings.Repeat("ё", 20), false},
		{"padding does not count", "   " + strings.Repeat("a", 19) + "   ", true},
		{"5001 chars", strings.Repeat("a", 5001), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			in := validCreate()
			in.Argument = tt.argument

			_, err := f.svc.CreateCase(as("192.0.2.1"), in)
			if tt.wantErr {
				var ve *domain.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "argument", ve.Errors[0].Field)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateCase_CollectsAllFieldErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateCase(as("192.0.2.1"), CreateCaseInput{
		Category:       "astrology",
		Tone:           "snarky",
		Evidence:       []string{"1", "2", "3", "4", "5", "6"},
		EvidenceImages: []string{"http://example.com/a.png"},
	})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "argument", "evidence", "evidence_images", "category", "tone"}, fields)
}

func TestCreateCase_QuotaExhausted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	id := domain.NewIdentity(uuid.Nil, "192.0.2.1")
	_, err := f.ledger.Record(context.Background(), id)
	require.NoError(t, err)

	_, err = f.svc.CreateCase(as("192.0.2.1"), validCreate())
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestCreateCase_RequiresIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.CreateCase(context.Background(), validCreate())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// SubmitResponse
// ---------------------------------------------------------------------------

func TestSubmitResponse_QueuesGeneration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)

	got, err := f.svc.SubmitResponse(as("192.0.2.2"), strings.ToLower(c.Code), validResponse())
	require.NoError(t, err)

	assert.Equal(t, domain.CaseStatusAnalyzing, got.Status)
	require.NotNil(t, got.PartyB)
	assert.Equal(t, "Bob", got.PartyB.Name)
	require.Len(t, f.gen.EnqueueCalls(), 1)
	assert.Equal(t, c.ID, f.gen.EnqueueCalls()[0].CaseID)
	assert.Equal(t, []domain.CaseStatus{
		domain.CaseStatusPendingResponse,
		domain.CaseStatusPendingResponse,
		domain.CaseStatusAnalyzing,
	}, f.statuses(t, c))

	// Neither party is charged before a verdict exists.
	for _, id := range []domain.Identity{c.PartyA.Identity, got.PartyB.Identity} {
		st, err := f.ledger.Check(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 0, st.Used)
	}
}

func TestSubmitResponse_ConcurrentExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		conflict int
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := validResponse()
			in.Name = fmt.Sprintf("Responder %d", i)
			_, err := f.svc.SubmitResponse(as(fmt.Sprintf("198.51.100.%d", i+1)), c.Code, in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrConflict):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflict)
	assert.Len(t, f.gen.EnqueueCalls(), 1)
}

func TestSubmitResponse_CompleteCaseReportsVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)
	_, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = f.store.Cases().Transition(ctx, c.ID, domain.CaseStatusAnalyzing, domain.CaseStatusComplete, time.Now())
	require.NoError(t, err)
	v, err := f.store.Verdicts().Create(ctx, &domain.Verdict{
		ID:     uuid.New(),
		CaseID: c.ID,
		PartyA: domain.PartyAnalysis{Score: 60},
		PartyB: domain.PartyAnalysis{Score: 40},
		Winner: domain.WinnerPartyA,
	})
	require.NoError(t, err)
	before, err := f.store.Cases().GetByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitResponse(as("192.0.2.3"), c.Code, validResponse())

	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	require.NotNil(t, ce.VerdictID)
	assert.Equal(t, v.ID, *ce.VerdictID)

	after, err := f.store.Cases().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSubmitResponse_PartyBQuotaBlocksCase(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)
	b := domain.NewIdentity(uuid.Nil, "192.0.2.2")
	_, err := f.ledger.Record(context.Background(), b)
	require.NoError(t, err)

	got, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)

	assert.Equal(t, domain.CaseStatusBlockedQuota, got.Status)
	assert.Empty(t, f.gen.EnqueueCalls())

	stA, err := f.ledger.Check(context.Background(), c.PartyA.Identity)
	require.NoError(t, err)
	assert.Equal(t, 0, stA.Used)
	stB, err := f.ledger.Check(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 1, stB.Used)
}

func TestSubmitResponse_SameIdentityForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)

	_, err := f.svc.SubmitResponse(as("192.0.2.1"), c.Code, validResponse())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.store.Cases().GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PartyB)
}

func TestSubmitResponse_DifferentUserBehindSameIP(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c, err := f.svc.CreateCase(asUser(uuid.New(), "203.0.113.7"), validCreate())
	require.NoError(t, err)

	got, err := f.svc.SubmitResponse(asUser(uuid.New(), "203.0.113.7"), c.Code, validResponse())
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusAnalyzing, got.Status)
	require.NotNil(t, got.PartyB)
	assert.Len(t, f.gen.EnqueueCalls(), 1)
}

func TestSubmitResponse_SameUserDifferentIPForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := uuid.New()
	c, err := f.svc.CreateCase(asUser(user, "192.0.2.1"), validCreate())
	require.NoError(t, err)

	_, err = f.svc.SubmitResponse(asUser(user, "198.51.100.9"), c.Code, validResponse())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmitResponse_Expired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)
	f.svc.now = func() time.Time { return c.ExpiresAt.Add(time.Minute) }

	_, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	assert.ErrorIs(t, err, domain.ErrExpired)

	got, err := f.store.Cases().GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusExpired, got.Status)
}

func TestSubmitResponse_DispatchFailureReverts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gen.EnqueueFunc = func(context.Context, uuid.UUID) error { return errors.New("queue full") }
	c := f.openCase(t)

	got, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPendingResponse, got.Status)
	assert.True(t, got.HasResponse())
}

func TestSubmitResponse_QuotaStoreErrorKeepsResponse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)
	f.svc.quota = &quotaGateMock{
		CheckAllFunc: func(context.Context, ...domain.Identity) (bool, []domain.QuotaStatus, error) {
			return false, nil, errors.New("connection refused")
		},
	}

	got, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPendingResponse, got.Status)
	assert.True(t, got.HasResponse())
	assert.Empty(t, f.gen.EnqueueCalls())
}

func TestSubmitResponse_BadCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.SubmitResponse(as("192.0.2.2"), "WR-12", validResponse())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SubmitResponse(as("192.0.2.2"), "WR-2026-9999", validResponse())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Retrigger
// ---------------------------------------------------------------------------

func TestRetrigger_BlockedCaseOnceQuotaFrees(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)
	b := domain.NewIdentity(uuid.Nil, "192.0.2.2")
	_, err := f.ledger.Record(context.Background(), b)
	require.NoError(t, err)

	blocked, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)
	require.Equal(t, domain.CaseStatusBlockedQuota, blocked.Status)

	_, err = f.svc.Retrigger(as("192.0.2.2"), c.Code)
	assert.ErrorIs(t, err, domain.ErrBlockedQuota)

	// Next day.
	f.svc.quota = quota.NewLedger(testLogger, memory.New().Usage(), quota.Limits{Anonymous: 1, Authenticated: 5})

	got, err := f.svc.Retrigger(as("192.0.2.1"), c.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusAnalyzing, got.Status)
	assert.Len(t, f.gen.EnqueueCalls(), 1)
}

func TestRetrigger_Rules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)

	_, err := f.svc.Retrigger(as("192.0.2.1"), c.Code)
	assert.ErrorIs(t, err, domain.ErrConflict, "no response yet")

	_, err = f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)

	_, err = f.svc.Retrigger(as("203.0.113.9"), c.Code)
	assert.ErrorIs(t, err, domain.ErrForbidden, "stranger")

	_, err = f.svc.Retrigger(as("192.0.2.1"), c.Code)
	assert.ErrorIs(t, err, domain.ErrConflict, "already analyzing")
}

func TestRetrigger_AuthenticatedPartyFromNewAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	user := uuid.New()
	c, err := f.svc.CreateCase(asUser(user, "192.0.2.1"), validCreate())
	require.NoError(t, err)

	f.gen.EnqueueFunc = func(context.Context, uuid.UUID) error { return errors.New("down") }
	_, err = f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)

	f.gen.EnqueueFunc = func(context.Context, uuid.UUID) error { return nil }
	got, err := f.svc.Retrigger(asUser(user, "203.0.113.50"), c.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusAnalyzing, got.Status)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestGetCase_LazyExpiry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)

	got, err := f.svc.GetCase(context.Background(), c.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPendingResponse, got.Status)

	f.svc.now = func() time.Time { return c.ExpiresAt }
	got, err = f.svc.GetCase(context.Background(), c.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusExpired, got.Status)
	assert.Equal(t, []domain.CaseStatus{domain.CaseStatusPendingResponse, domain.CaseStatusExpired}, f.statuses(t, c))
}

func TestStats_EmptyForNewIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	st, err := f.svc.Stats(as("192.0.2.1"))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Total())
	assert.Equal(t, "ip:"+domain.HashIP("192.0.2.1"), st.IdentityKey)
}

func TestQuotaStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	st, err := f.svc.QuotaStatus(asUser(uuid.New(), "192.0.2.1"))
	require.NoError(t, err)
	assert.True(t, st.CanUse)
	assert.Equal(t, 5, st.Limit)
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

func TestExpireOverdue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	overdue := f.openCase(t)
	answered := f.openCase(t)
	_, err := f.svc.SubmitResponse(as("192.0.2.2"), answered.Code, validResponse())
	require.NoError(t, err)

	f.svc.now = func() time.Time { return overdue.ExpiresAt.Add(time.Hour) }

	res, err := f.svc.ExpireOverdue(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expired)

	got, err := f.store.Cases().GetByID(context.Background(), answered.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusAnalyzing, got.Status)
}

func TestRecoverStale(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.openCase(t)
	_, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)

	res, err := f.svc.RecoverStale(context.Background(), time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Recovered, "fresh analysis is left alone")

	f.svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	res, err = f.svc.RecoverStale(context.Background(), time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Recovered)

	got, err := f.store.Cases().GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusPendingResponse, got.Status)
	assert.True(t, got.HasResponse())
}

func TestRetriggerPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gen.EnqueueFunc = func(context.Context, uuid.UUID) error { return errors.New("down") }
	c := f.openCase(t)
	_, err := f.svc.SubmitResponse(as("192.0.2.2"), c.Code, validResponse())
	require.NoError(t, err)

	f.gen.EnqueueFunc = func(context.Context, uuid.UUID) error { return nil }
	f.svc.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }

	res, err := f.svc.RetriggerPending(context.Background(), 10*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Retriggered)
	assert.Equal(t, 0, res.Failed)
}
