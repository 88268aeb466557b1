package appeal

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/service/judge"
)

var _ reconsiderer = &reconsidererMock{}

type reconsidererMock struct {
	ReconsiderFunc func(ctx context.Context, req judge.AppealRequest) (*domain.AppealDecision, error)

	calls struct {
		Reconsider []struct {
			Ctx context.Context
			Req judge.AppealRequest
		}
	}
	lockReconsider sync.RWMutex
}

func (mock *reconsidererMock) Reconsider(ctx context.Context, req judge.AppealRequest) (*domain.AppealDecision, error) {
	if mock.ReconsiderFunc == nil {
		panic("reconsidererMock.ReconsiderFunc: method is nil but reconsiderer.Reconsider was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Req judge.AppealRequest
	}{Ctx: ctx, Req: req}
	mock.lockReconsider.Lock()
	mock.calls.Reconsider = append(mock.calls.Reconsider, callInfo)
	mock.lockReconsider.Unlock()
	return mock.ReconsiderFunc(ctx, req)
}

func (mock *reconsidererMock) ReconsiderCalls() []struct {
	Ctx context.Context
	Req judge.AppealRequest
} {
	mock.lockReconsider.RLock()
	calls := mock.calls.Reconsider
	mock.lockReconsider.RUnlock()
	return calls
}
