package cases_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/cases"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/whosright-backend/internal/domain"
)

func seedCase(t *testing.T, repo *cases.Repo, expiresIn time.Duration) *domain.Case {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &domain.Case{
		ID:       uuid.New(),
		Code:     domain.FormatCaseCode(2026, int(uuid.New().ID()%9999)+1),
		Category: domain.CategoryWork,
		Tone:     domain.ToneNeutral,
		Status:   domain.CaseStatusPendingResponse,
		PartyA: domain.PartySubmission{
			Name:     "Alice",
			Argument: "You took credit for my slides in the meeting.",
			Identity: domain.NewIdentity(uuid.New(), "10.0.0.1"),
		},
		ExpiresAt: now.Add(expiresIn),
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := repo.Create(context.Background(), c)
	if err != nil {
		t.Skipf("code collision while seeding: %v", err)
	}
	return created
}

func TestCases_ConcurrentResponsesOnlyOneWins(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := cases.New(pool)
	c := seedCase(t, repo, time.Hour)

	const n = 8
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CommitResponse(context.Background(), c.ID, domain.PartySubmission{
				Name:     "Bob",
				Argument: "Response number " + string(rune('A'+i)) + " with enough text.",
				Identity: domain.NewIdentity(uuid.Nil, "10.0.0.2"),
			}, time.Now().UTC())
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestCases_ExpireOnlyAfterWindow(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := cases.New(pool)
	c := seedCase(t, repo, time.Hour)

	_, err := repo.Expire(context.Background(), c.ID, time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.Expire(context.Background(), c.ID, c.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusExpired, got.Status)
}

func TestCases_ResponseRejectedAfterExpiry(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := cases.New(pool)
	c := seedCase(t, repo, time.Minute)

	_, err := repo.CommitResponse(context.Background(), c.ID, domain.PartySubmission{
		Name: "Bob", Argument: "Too late but still trying hard.",
	}, c.ExpiresAt)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCases_MarkAppealedOnce(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := cases.New(pool)
	ctx := context.Background()
	c := seedCase(t, repo, time.Hour)

	now := time.Now().UTC()
	_, err := repo.CommitResponse(ctx, c.ID, domain.PartySubmission{
		Name: "Bob", Argument: "I presented them because you were sick.",
	}, now)
	require.NoError(t, err)
	_, err = repo.Transition(ctx, c.ID, domain.CaseStatusPendingResponse, domain.CaseStatusAnalyzing, now)
	require.NoError(t, err)
	_, err = repo.Transition(ctx, c.ID, domain.CaseStatusAnalyzing, domain.CaseStatusComplete, now)
	require.NoError(t, err)

	got, err := repo.MarkAppealed(ctx, c.ID, domain.PartyB, now)
	require.NoError(t, err)
	assert.True(t, got.AppealedByB)
	assert.Equal(t, 1, got.AppealCount)

	_, err = repo.MarkAppealed(ctx, c.ID, domain.PartyB, now)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
