package engine

import "scenario-assessment-service/internal/domain"

// settleVerdict applies the all-or-nothing payout policy to a completed
// history. A single wrong answer anywhere fails the attempt and zeroes the
// award; per-stage reward weights and the coins accumulated during play are
// discarded here on purpose — the host shows incrementing coins mid-game, but
// only a perfect run pays out, and it pays the plan's totals rather than a sum
// of stage rewards. This mirrors the shipped games exactly.
func settleVerdict(history []domain.AnswerRecord, totalStages int, plan domain.RewardPlan) domain.Verdict {
	correct := 0
	for _, record := range history {
		if record.Correct {
			correct++
		}
	}

	verdict := domain.Verdict{
		CorrectCount: correct,
		Passed:       correct == totalStages,
	}
	if verdict.Passed {
		verdict.CoinsAwarded = plan.TotalCoins
		verdict.XPAwarded = plan.TotalXP
	}
	return verdict
}
