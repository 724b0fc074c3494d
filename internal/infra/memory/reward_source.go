package memory

import (
	"context"
	"sync"

	"scenario-assessment-service/internal/domain"
)

// StaticRewardSource resolves reward plans from an in-memory map. It doubles
// as the loader behind the Redis-cached reward repository and as a direct
// engine.RewardRepository for single-process deployments.
type StaticRewardSource struct {
	plans map[string]domain.RewardPlan
}

func NewStaticRewardSource(plans map[string]domain.RewardPlan) *StaticRewardSource {
	return &StaticRewardSource{plans: plans}
}

func (s *StaticRewardSource) GetPlan(_ context.Context, gameID string) (domain.RewardPlan, error) {
	if plan, ok := s.plans[gameID]; ok {
		return plan, nil
	}
	return domain.RewardPlan{}, domain.ErrPlanNotFound
}

// CompletionLog is an in-memory CompletionStore; single-process deployments
// and tests read submissions back through Completions.
type CompletionLog struct {
	mu          sync.Mutex
	completions []domain.Completion
}

func NewCompletionLog() *CompletionLog {
	return &CompletionLog{}
}

func (l *CompletionLog) RecordCompletion(_ context.Context, completion domain.Completion) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completions = append(l.completions, completion)
	return nil
}

// Completions returns a copy of the recorded submissions in record order.
func (l *CompletionLog) Completions() []domain.Completion {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Completion, len(l.completions))
	copy(out, l.completions)
	return out
}
