package appeal

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/worker"
)

var _ dispatcher = &dispatcherMock{}

type dispatcherMock struct {
	SubmitFunc func(ctx context.Context, task worker.Task) error

	calls struct {
		Submit []struct {
			Ctx  context.Context
			Task worker.Task
		}
	}
	lockSubmit sync.RWMutex
}

func (mock *dispatcherMock) Submit(ctx context.Context, task worker.Task) error {
	if mock.SubmitFunc == nil {
		panic("dispatcherMock.SubmitFunc: method is nil but dispatcher.Submit was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Task worker.Task
	}{Ctx: ctx, Task: task}
	mock.lockSubmit.Lock()
	mock.calls.Submit = append(mock.calls.Submit, callInfo)
	mock.lockSubmit.Unlock()
	return mock.SubmitFunc(ctx, task)
}

func (mock *dispatcherMock) SubmitCalls() []struct {
	Ctx  context.Context
	Task worker.Task
} {
	mock.lockSubmit.RLock()
	calls := mock.calls.Submit
	mock.lockSubmit.RUnlock()
	return calls
}
