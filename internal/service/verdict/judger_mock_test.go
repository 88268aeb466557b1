package verdict

import (
	"context"
	"sync"

	"github.com/heartmarshall/whosright-backend/internal/domain"
	"github.com/heartmarshall/whosright-backend/internal/service/judge"
)

var _ judger = &judgerMock{}

type judgerMock struct {
	JudgeFunc func(ctx context.Context, req judge.VerdictRequest) (*domain.Verdict, error)

	calls struct {
		Judge []struct {
			Ctx context.Context
			Req judge.VerdictRequest
		}
	}
	lockJudge sync.RWMutex
}

func (mock *judgerMock) Judge(ctx context.Context, req judge.VerdictRequest) (*domain.Verdict, error) {
	if mock.JudgeFunc == nil {
		panic("judgerMock.JudgeFunc: method is nil but judger.Judge was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Req judge.VerdictRequest
	}{Ctx: ctx, Req: req}
	mock.lockJudge.Lock()
	mock.calls.Judge = append(mock.calls.Judge, callInfo)
	mock.lockJudge.Unlock()
	return mock.JudgeFunc(ctx, req)
}

func (mock *judgerMock) JudgeCalls() []struct {
	Ctx context.Context
	Req judge.VerdictRequest
} {
	mock.lockJudge.RLock()
	calls := mock.calls.Judge
	mock.lockJudge.RUnlock()
	return calls
}
