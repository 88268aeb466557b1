package usage

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_Used(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(mock pgxmock.PgxPoolIface)
		want  int
	}{
		{
			name: "existing row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT used FROM usage_records WHERE day = \$1 AND identity_key = \$2`).
					WithArgs(day, "ip:abc").
					WillReturnRows(pgxmock.NewRows([]string{"used"}).AddRow(3))
			},
			want: 3,
		},
		{
			name: "no row is zero",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT used`).WithArgs(day, "ip:abc").WillReturnError(pgx.ErrNoRows)
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setup(mock)

			got, err := New(mock).Used(context.Background(), "ip:abc", day)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepo_Increment_Upserts(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO usage_records .+ ON CONFLICT \(identity_key, day\) DO UPDATE SET used = usage_records.used \+ 1`).
		WithArgs("user:42", day, 1).
		WillReturnRows(pgxmock.NewRows([]string{"used"}).AddRow(2))

	got, err := New(mock).Increment(context.Background(), "user:42", day)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
