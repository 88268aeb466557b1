package verdict

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

func (s *Service) updateStats(ctx context.Context, c *domain.Case, v *domain.Verdict) {
	ctx = context.WithoutCancel(ctx)
	parties := []struct {
		party domain.Party
		sub   *domain.PartySubmission
	}{
		{domain.PartyA, &c.PartyA},
		{domain.PartyB, c.PartyB},
	}

	for _, p := range parties {
		key := p.sub.Identity.Key()
		var earned []string

		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			st, err := s.stats.GetForUpdate(ctx, key)
			if err != nil {
				return err
			}
			earned = st.Apply(v.OutcomeFor(p.party), s.now())
			return s.stats.Upsert(ctx, st)
		})
		if err != nil {
			s.log.WarnContext(ctx, "identity stats not updated",
				slog.String("case_code", c.Code),
				slog.String("party", string(p.party)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(earned) > 0 {
			s.log.InfoContext(ctx, "badges earned",
				slog.String("case_code", c.Code),
				slog.String("party", string(p.party)),
				slog.Any("badges", earned),
			)
		}
	}
}
