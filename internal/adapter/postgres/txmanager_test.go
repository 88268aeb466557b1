package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres"
	"github.com/heartmarshall/whosright-backend/internal/adapter/postgres/testhelper"
)

// usageExists checks whether a usage row for the key exists in the database.
func usageExists(t *testing.T, pool *pgxpool.Pool, key string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM usage_records WHERE identity_key = $1)`,
		key,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("usageExists query: %v", err)
	}
	return exists
}

func insertUsage(ctx context.Context, q postgres.Querier, key string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO usage_records (identity_key, day, used) VALUES ($1, current_date, 1)`,
		key,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	key := testhelper.UniqueKey("commit")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertUsage(ctx, postgres.QuerierFromCtx(ctx, pool), key)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !usageExists(t, pool, key) {
		t.Fatal("expected row to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	key := testhelper.UniqueKey("rollback")
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if execErr := insertUsage(ctx, postgres.QuerierFromCtx(ctx, pool), key); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if usageExists(t, pool, key) {
		t.Fatal("expected row NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	key := testhelper.UniqueKey("panic")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}
		if usageExists(t, pool, key) {
			t.Fatal("expected row NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertUsage(ctx, postgres.QuerierFromCtx(ctx, pool), key); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	key := testhelper.UniqueKey("nested")
	sentinel := errors.New("outer failure")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		innerErr := tm.RunInTx(ctx, func(ctx context.Context) error {
			return insertUsage(ctx, postgres.QuerierFromCtx(ctx, pool), key)
		})
		if innerErr != nil {
			t.Fatalf("inner RunInTx: %v", innerErr)
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if usageExists(t, pool, key) {
		t.Fatal("inner write must roll back with the outer transaction")
	}
}
