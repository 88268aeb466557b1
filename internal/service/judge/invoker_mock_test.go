package judge

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/provider"
)

var _ invoker = &invokerMock{}

type invokerMock struct {
	InvokeFunc func(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error)

	calls struct {
		Invoke []struct {
			Ctx context.Context
			Req provider.CompletionRequest
		}
	}
	lockInvoke sync.RWMutex
}

func (mock *invokerMock) Invoke(ctx context.Context, req provider.CompletionRequest) (provider.Completion, error) {
	if mock.InvokeFunc == nil {
		panic("invokerMock.InvokeFunc: method is nil but invoker.Invoke was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Req provider.CompletionRequest
	}{Ctx: ctx, Req: req}
	mock.lockInvoke.Lock()
	mock.calls.Invoke = append(mock.calls.Invoke, callInfo)
	mock.lockInvoke.Unlock()
	return mock.InvokeFunc(ctx, req)
}

func (mock *invokerMock) InvokeCalls() []struct {
	Ctx context.Context
	Req provider.CompletionRequest
} {
	mock.lockInvoke.RLock()
	calls := mock.calls.Invoke
	mock.lockInvoke.RUnlock()
	return calls
}
