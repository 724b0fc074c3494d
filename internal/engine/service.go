package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"scenario-assessment-service/internal/domain"
)

// SessionRepository abstracts how live sessions are tracked (in-memory,
// Redis-backed liveness, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads validated stage catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, gameID string) (domain.Catalog, error)
}

// RewardRepository resolves the per-game reward plan.
type RewardRepository interface {
	GetPlan(ctx context.Context, gameID string) (domain.RewardPlan, error)
}

// CompletionStore records passed attempts for the backend that owns
// progress/reporting. The engine only writes; it never reads completions.
type CompletionStore interface {
	RecordCompletion(ctx context.Context, completion domain.Completion) error
}

// Service contains the assessment use cases a host binds to.
type Service struct {
	sessions    SessionRepository
	catalogs    CatalogRepository
	rewards     RewardRepository
	completions CompletionStore
	timing      Timing
	sched       Scheduler
	fallback    domain.RewardPlan
	newID       func() string
}

func NewService(sessions SessionRepository, catalogs CatalogRepository, rewards RewardRepository, completions CompletionStore, timing Timing, fallback domain.RewardPlan) *Service {
	return NewServiceWithScheduler(sessions, catalogs, rewards, completions, timing, fallback, WallScheduler{})
}

// NewServiceWithScheduler is test-only for deterministic timer control.
func NewServiceWithScheduler(sessions SessionRepository, catalogs CatalogRepository, rewards RewardRepository, completions CompletionStore, timing Timing, fallback domain.RewardPlan, sched Scheduler) *Service {
	return &Service{
		sessions:    sessions,
		catalogs:    catalogs,
		rewards:     rewards,
		completions: completions,
		timing:      timing,
		sched:       sched,
		fallback:    fallback,
		newID:       uuid.NewString,
	}
}

// Start loads the game's catalog and reward plan and creates a fresh session.
// Games without a reward plan fall back to the configured default plan rather
// than failing, so demo games stay playable.
func (s *Service) Start(ctx context.Context, gameID, playerID string) (domain.Snapshot, error) {
	catalog, err := s.catalogs.GetCatalog(ctx, gameID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	plan, err := s.rewards.GetPlan(ctx, gameID)
	if errors.Is(err, domain.ErrPlanNotFound) {
		plan = s.fallback
	} else if err != nil {
		return domain.Snapshot{}, err
	}

	session := NewSession(s.newID(), gameID, playerID, catalog, plan, s.timing, s.sched)
	s.sessions.Put(session)
	return session.Snapshot(), nil
}

// SelectOption records the player's choice for the current stage.
func (s *Service) SelectOption(sessionID, stageID, optionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.SelectOption(stageID, optionID)
}

// Advance moves to the next stage or settles the final verdict.
func (s *Service) Advance(sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Advance()
}

// Retry restarts the session from stage 0.
func (s *Service) Retry(sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Retry()
}

// Snapshot returns the session's current read model.
func (s *Service) Snapshot(sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives snapshots on every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Service) Subscribe(sessionID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// SubmitCompletion records a settled, passed attempt. It fails with
// ErrVerdictPending before the session finishes and ErrNothingToSubmit when
// the verdict did not pass.
func (s *Service) SubmitCompletion(ctx context.Context, sessionID string) (domain.Completion, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Completion{}, domain.ErrSessionNotFound
	}
	completion, err := session.completion()
	if err != nil {
		return domain.Completion{}, err
	}
	if err := s.completions.RecordCompletion(ctx, completion); err != nil {
		return domain.Completion{}, err
	}
	return completion, nil
}

// Dispose cancels the session's timers and removes it from the repository.
func (s *Service) Dispose(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}
