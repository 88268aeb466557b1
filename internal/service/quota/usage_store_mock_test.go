package quota

import (
	"context"
	"sync"
	"time"
)

var _ usageStore = &usageStoreMock{}

type usageStoreMock struct {
	IncrementFunc func(ctx context.Context, key string, day time.Time) (int, error)
	UsedFunc      func(ctx context.Context, key string, day time.Time) (int, error)

	calls struct {
		Increment []struct {
			Ctx context.Context
			Key string
			Day time.Time
		}
		Used []struct {
			Ctx context.Context
			Key string
			Day time.Time
		}
	}
	lockIncrement sync.RWMutex
	lockUsed      sync.RWMutex
}

func (mock *usageStoreMock) Increment(ctx context.Context, key string, day time.Time) (int, error) {
	if mock.IncrementFunc == nil {
		panic("usageStoreMock.IncrementFunc: method is nil but usageStore.Increment was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
		Day time.Time
	}{Ctx: ctx, Key: key, Day: day}
	mock.lockIncrement.Lock()
	mock.calls.Increment = append(mock.calls.Increment, callInfo)
	mock.lockIncrement.Unlock()
	return mock.IncrementFunc(ctx, key, day)
}

func (mock *usageStoreMock) IncrementCalls() []struct {
	Ctx context.Context
	Key string
	Day time.Time
} {
	mock.lockIncrement.RLock()
	calls := mock.calls.Increment
	mock.lockIncrement.RUnlock()
	return calls
}

func (mock *usageStoreMock) Used(ctx context.Context, key string, day time.Time) (int, error) {
	if mock.UsedFunc == nil {
		panic("usageStoreMock.UsedFunc: method is nil but usageStore.Used was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Key string
		Day time.Time
	}{Ctx: ctx, Key: key, Day: day}
	mock.lockUsed.Lock()
	mock.calls.Used = append(mock.calls.Used, callInfo)
	mock.lockUsed.Unlock()
	return mock.UsedFunc(ctx, key, day)
}

func (mock *usageStoreMock) UsedCalls() []struct {
	Ctx context.Context
	Key string
	Day time.Time
} {
	mock.lockUsed.RLock()
	calls := mock.calls.Used
	mock.lockUsed.RUnlock()
	return calls
}
