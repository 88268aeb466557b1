package dispute

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

var _ quotaGate = &quotaGateMock{}

type quotaGateMock struct {
	CheckFunc    func(ctx context.Context, id domain.Identity) (domain.QuotaStatus, error)
	CheckAllFunc func(ctx context.Context, ids ...domain.Identity) (bool, []domain.QuotaStatus, error)

	calls struct {
		Check []struct {
			Ctx context.Context
			Id  domain.Identity
		}
		CheckAll []struct {
			Ctx context.Context
			Ids []domain.Identity
		}
	}
	lockCheck    sync.RWMutex
	lockCheckAll sync.RWMutex
}

func (mock *quotaGateMock) Check(ctx context.Context, id domain.Identity) (domain.QuotaStatus, error) {
	if mock.CheckFunc == nil {
		panic("quotaGateMock.CheckFunc: method is nil but quotaGate.Check was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Id  domain.Identity
	}{Ctx: ctx, Id: id}
	mock.lockCheck.Lock()
	mock.calls.Check = append(mock.calls.Check, callInfo)
	mock.lockCheck.Unlock()
	return mock.CheckFunc(ctx, id)
}

func (mock *quotaGateMock) CheckCalls() []struct {
	Ctx context.Context
	Id  domain.Identity
} {
	mock.lockCheck.RLock()
	calls := mock.calls.Check
	mock.lockCheck.RUnlock()
	return calls
}

func (mock *quotaGateMock) CheckAll(ctx context.Context, ids ...domain.Identity) (bool, []domain.QuotaStatus, error) {
	if mock.CheckAllFunc == nil {
		panic("quotaGateMock.CheckAllFunc: method is nil but quotaGate.CheckAll was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Ids []domain.Identity
	}{Ctx: ctx, Ids: ids}
	mock.lockCheckAll.Lock()
	mock.calls.CheckAll = append(mock.calls.CheckAll, callInfo)
	mock.lockCheckAll.Unlock()
	return mock.CheckAllFunc(ctx, ids...)
}

func (mock *quotaGateMock) CheckAllCalls() []struct {
	Ctx context.Context
	Ids []domain.Identity
} {
	mock.lockCheckAll.RLock()
	calls := mock.calls.CheckAll
	mock.lockCheckAll.RUnlock()
	return calls
}
