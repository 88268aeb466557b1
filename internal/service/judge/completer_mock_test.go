package judge

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/provider"
)

var _ Completer = &CompleterMock{}

type CompleterMock struct {
	CompleteFunc func(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error)
	NameFunc     func() string

	calls struct {
		Complete []struct {
			Ctx context.Context
			Req provider.CompletionRequest
		}
		Name []struct{}
	}
	lockComplete sync.RWMutex
	lockName     sync.RWMutex
}

func (mock *CompleterMock) Complete(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error) {
	if mock.CompleteFunc == nil {
		panic("CompleterMock.CompleteFunc: method is nil but Completer.Complete was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Req provider.CompletionRequest
	}{Ctx: ctx, Req: req}
	mock.lockComplete.Lock()
	mock.calls.Complete = append(mock.calls.Complete, callInfo)
	mock.lockComplete.Unlock()
	return mock.CompleteFunc(ctx, req)
}

func (mock *CompleterMock) CompleteCalls() []struct {
	Ctx context.Context
	Req provider.CompletionRequest
} {
	mock.lockComplete.RLock()
	calls := mock.calls.Complete
	mock.lockComplete.RUnlock()
	return calls
}

func (mock *CompleterMock) Name() string {
	if mock.NameFunc == nil {
		panic("CompleterMock.NameFunc: method is nil but Completer.Name was just called")
	}
	mock.lockName.Lock()
	mock.calls.Name = append(mock.calls.Name, struct{}{})
	mock.lockName.Unlock()
	return mock.NameFunc()
}

func (mock *CompleterMock) NameCalls() []struct{} {
	mock.lockName.RLock()
	calls := mock.calls.Name
	mock.lockName.RUnlock()
	return calls
}
