package dispute

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

var _ generator = &generatorMock{}

type generatorMock struct {
	EnqueueFunc func(ctx context.Context, caseID uuid.UUID) error

	calls struct {
		Enqueue []struct {
			Ctx    context.Context
			CaseID uuid.UUID
		}
	}
	lockEnqueue sync.RWMutex
}

func (mock *generatorMock) Enqueue(ctx context.Context, caseID uuid.UUID) error {
	if mock.EnqueueFunc == nil {
		panic("generatorMock.EnqueueFunc: method is nil but generator.Enqueue was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		CaseID uuid.UUID
	}{Ctx: ctx, CaseID: caseID}
	mock.lockEnqueue.Lock()
	mock.calls.Enqueue = append(mock.calls.Enqueue, callInfo)
	mock.lockEnqueue.Unlock()
	return mock.EnqueueFunc(ctx, caseID)
}

func (mock *generatorMock) EnqueueCalls() []struct {
	Ctx    context.Context
	CaseID uuid.UUID
} {
	mock.lockEnqueue.RLock()
	calls := mock.calls.Enqueue
	mock.lockEnqueue.RUnlock()
	return calls
}
