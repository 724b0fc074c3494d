package redis

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"scenario-assessment-service/internal/domain"
)

// RewardSource resolves reward plans from a backing store (e.g., the CSR
// reward catalog service).
type RewardSource interface {
	GetPlan(ctx context.Context, gameID string) (domain.RewardPlan, error)
}

// RewardRepository caches reward plans in Redis (hash per game) and falls
// back to a source on cache miss. Plans are stored as:
// HSET assess:rewards:{gameID} coinsPerStage {n} totalCoins {n} totalXp {n}
type RewardRepository struct {
	client *redis.Client
	source RewardSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewRewardRepository(client *redis.Client, source RewardSource, ttl time.Duration) *RewardRepository {
	return &RewardRepository{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RewardRepository) GetPlan(ctx context.Context, gameID string) (domain.RewardPlan, error) {
	key := r.planKey(gameID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return planFromHash(fields), nil
	}

	result, err, _ := r.sf.Do(gameID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return planFromHash(fields), nil
		}

		plan, err := r.source.GetPlan(ctx, gameID)
		if err != nil {
			return domain.RewardPlan{}, err
		}

		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key,
			"coinsPerStage", plan.CoinsPerStage,
			"totalCoins", plan.TotalCoins,
			"totalXp", plan.TotalXP,
		)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return plan, nil
	})
	if err != nil {
		return domain.RewardPlan{}, err
	}
	return result.(domain.RewardPlan), nil
}

func (r *RewardRepository) planKey(gameID string) string {
	return "assess:rewards:" + gameID
}

func planFromHash(fields map[string]string) domain.RewardPlan {
	plan := domain.RewardPlan{}
	if v, err := strconv.Atoi(fields["coinsPerStage"]); err == nil {
		plan.CoinsPerStage = v
	}
	if v, err := strconv.Atoi(fields["totalCoins"]); err == nil {
		plan.TotalCoins = v
	}
	if v, err := strconv.Atoi(fields["totalXp"]); err == nil {
		plan.TotalXP = v
	}
	return plan
}

func (r *RewardRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
