package domain

import (
	"slices"
	"time"
)

// Outcome is a party's result on a verdict.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Badges awarded from identity statistics.
const (
	BadgeFirstVerdict = "first_verdict"
	BadgeFirstWin     = "first_win"
	BadgeHatTrick     = "hat_trick"
	BadgeVeteran      = "veteran"
)

// IdentityStats are derived per-identity results across completed cases.
type IdentityStats struct {
	IdentityKey   string
	Wins          int
	Losses        int
	Draws         int
	CurrentStreak int
	BestStreak    int
	Badges        []string
	UpdatedAt     time.Time
}

// Total is the number of verdicts the identity took part in.
func (s *IdentityStats) Total() int { return s.Wins + s.Losses + s.Draws }

// Apply folds one outcome into the statistics and returns newly earned badges.
// A draw or loss resets the win streak.
func (s *IdentityStats) Apply(o Outcome, now time.Time) []string {
	switch o {
	case OutcomeWin:
		s.Wins++
		s.CurrentStreak++
		s.BestStreak = max(s.BestStreak, s.CurrentStreak)
	case OutcomeLoss:
		s.Losses++
		s.CurrentStreak = 0
	case OutcomeDraw:
		s.Draws++
		s.CurrentStreak = 0
	}
	s.UpdatedAt = now

	var earned []string
	award := func(badge string, cond bool) {
		if cond && !slices.Contains(s.Badges, badge) {
			s.Badges = append(s.Badges, badge)
			earned = append(earned, badge)
		}
	}
	award(BadgeFirstVerdict, s.Total() >= 1)
	award(BadgeFirstWin, s.Wins >= 1)
	award(BadgeHatTrick, s.BestStreak >= 3)
	award(BadgeVeteran, s.Total() >= 10)

	return earned
}
