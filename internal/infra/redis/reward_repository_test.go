package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"scenario-assessment-service/internal/domain"
	"scenario-assessment-service/internal/infra/memory"
)

func TestRewardRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	source := &countingSource{
		RewardSource: memory.NewStaticRewardSource(map[string]domain.RewardPlan{
			"game-1": {CoinsPerStage: 5, TotalCoins: 15, TotalXP: 30},
		}),
	}
	repo := NewRewardRepository(client, source, time.Minute)

	plan, err := repo.GetPlan(context.Background(), "game-1")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if plan.TotalCoins != 15 || plan.TotalXP != 30 || plan.CoinsPerStage != 5 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if source.calls != 1 {
		t.Fatalf("expected source called once, got %d", source.calls)
	}
	if !mr.Exists("assess:rewards:game-1") {
		t.Fatalf("expected cached hash in redis")
	}

	// Second call should hit the cache, source not incremented.
	plan, err = repo.GetPlan(context.Background(), "game-1")
	if err != nil {
		t.Fatalf("get plan 2: %v", err)
	}
	if plan.TotalCoins != 15 {
		t.Fatalf("cache round-trip corrupted plan: %+v", plan)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", source.calls)
	}
}

func TestRewardRepositoryPropagatesMiss(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewRewardRepository(newClient(mr), memory.NewStaticRewardSource(nil), time.Minute)
	if _, err := repo.GetPlan(context.Background(), "unknown"); err != domain.ErrPlanNotFound {
		t.Fatalf("expected plan not found, got %v", err)
	}
}

type countingSource struct {
	RewardSource
	calls int
}

func (s *countingSource) GetPlan(ctx context.Context, gameID string) (domain.RewardPlan, error) {
	s.calls++
	return s.RewardSource.GetPlan(ctx, gameID)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
