package transitions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

func TestRepo_AppendAndList(t *testing.T) {
	t.Parallel()

	caseID := uuid.New()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tr := domain.CaseTransition{
		ID: uuid.New(), CaseID: caseID,
		From: domain.CaseStatusPendingResponse, To: domain.CaseStatusAnalyzing,
		Reason: domain.ReasonGenerationQueued, CreatedAt: now,
	}

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO case_transitions`).
		WithArgs(tr.ID, caseID, tr.From, tr.To, tr.Reason, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT .+ FROM case_transitions WHERE case_id = \$1 ORDER BY created_at ASC, id ASC`).
		WithArgs(caseID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "case_id", "from_status", "to_status", "reason", "created_at"}).
			AddRow(uuid.New(), caseID, "", "pending_response", domain.ReasonCreated, now.Add(-time.Hour)).
			AddRow(tr.ID, caseID, "pending_response", "analyzing", tr.Reason, now))

	repo := New(mock)
	require.NoError(t, repo.Append(context.Background(), tr))

	got, err := repo.ListByCase(context.Background(), caseID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CaseStatus(""), got[0].From)
	assert.Equal(t, domain.CaseStatusAnalyzing, got[1].To)
	assert.NoError(t, mock.ExpectationsWereMet())
}
