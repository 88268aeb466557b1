package verdict

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

var _ verdictRepo = &verdictRepoMock{}

type verdictRepoMock struct {
	CreateFunc func(ctx context.Context, v *domain.Verdict) (*domain.Verdict, error)

	calls struct {
		Create []struct {
			Ctx context.Context
			V   *domain.Verdict
		}
	}
	lockCreate sync.RWMutex
}

func (mock *verdictRepoMock) Create(ctx context.Context, v *domain.Verdict) (*domain.Verdict, error) {
	if mock.CreateFunc == nil {
		panic("verdictRepoMock.CreateFunc: method is nil but verdictRepo.Create was just called")
	}
	callInfo := struct {
		Ctx context.Context
		V   *domain.Verdict
	}{Ctx: ctx, V: v}
	mock.lockCreate.Lock()
	mock.calls.Create = append(mock.calls.Create, callInfo)
	mock.lockCreate.Unlock()
	return mock.CreateFunc(ctx, v)
}

func (mock *verdictRepoMock) CreateCalls() []struct {
	Ctx context.Context
	V   *domain.Verdict
} {
	mock.lockCreate.RLock()
	calls := mock.calls.Create
	mock.lockCreate.RUnlock()
	return calls
}
