package engine

import (
	"fmt"
	"sync"
	"time"

	"scenario-assessment-service/internal/domain"
)

// Session is the state machine for one play-through of a stage catalog. All
// mutation goes through its commands; timer callbacks re-check the live state
// under the lock, so a callback scheduled for a previous attempt (or a
// disposed session) can never apply.
type Session struct {
	id       string
	gameID   string
	playerID string
	catalog  domain.Catalog
	plan     domain.RewardPlan
	timing   Timing
	sched    Scheduler
	now      func() time.Time

	mu sync.Mutex
	// generation increments on Retry and Close; timer callbacks carry the
	// generation they were scheduled under and bail out on mismatch.
	generation  uint64
	index       int
	phase       domain.Phase
	selected    string
	history     []domain.AnswerRecord
	coins       int
	verdict     *domain.Verdict
	closed      bool
	stopReveal  func() bool
	stopSettle  func() bool
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession creates a fresh session at stage 0. The catalog must come from
// domain.NewCatalog; the session trusts its invariants.
func NewSession(id, gameID, playerID string, catalog domain.Catalog, plan domain.RewardPlan, timing Timing, sched Scheduler) *Session {
	return newSessionWithClock(id, gameID, playerID, catalog, plan, timing, sched, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id, gameID, playerID string, catalog domain.Catalog, plan domain.RewardPlan, timing Timing, sched Scheduler, now func() time.Time) *Session {
	if sched == nil {
		sched = WallScheduler{}
	}
	return &Session{
		id:          id,
		gameID:      gameID,
		playerID:    playerID,
		catalog:     catalog,
		plan:        plan,
		timing:      timing.withDefaults(),
		sched:       sched,
		now:         now,
		phase:       domain.PhaseAwaitingSelection,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SelectOption records the player's choice for the current stage and starts
// the reveal gate. Calling it again before the stage advances is a silent
// no-op (the shipped games ignore clicks once an answer is locked in).
func (s *Session) SelectOption(stageID, optionID string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, domain.ErrSessionClosed
	}
	if s.phase != domain.PhaseAwaitingSelection {
		return s.snapshotLocked(), nil
	}

	stage := s.catalog.Stages[s.index]
	if stageID != stage.ID {
		return domain.Snapshot{}, domain.ErrStageMismatch
	}
	option, ok := stage.Option(optionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrOptionNotFound
	}

	s.history = append(s.history, domain.AnswerRecord{StageID: stage.ID, Correct: option.Correct})
	if option.Correct {
		// Optimistic running count shown during play; the settlement policy
		// discards it.
		s.coins++
	}
	s.selected = option.ID
	s.phase = domain.PhaseRevealGated

	gen := s.generation
	s.stopReveal = s.sched.AfterFunc(s.timing.RevealDelay, func() {
		s.onRevealElapsed(gen)
	})
	if s.index == s.catalog.Len()-1 {
		s.stopSettle = s.sched.AfterFunc(s.timing.FinalSettleDelay, func() {
			s.onSettleElapsed(gen)
		})
	}

	return s.broadcastLocked(), nil
}

// Advance moves to the next stage, or settles the verdict on the last one.
// It fails with *domain.InvalidTransitionError unless the reveal gate has
// elapsed.
func (s *Session) Advance() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, domain.ErrSessionClosed
	}
	if s.phase != domain.PhaseReadyToAdvance {
		return domain.Snapshot{}, &domain.InvalidTransitionError{Command: "advance", Phase: s.phase}
	}

	if s.index < s.catalog.Len()-1 {
		s.index++
		s.selected = ""
		s.phase = domain.PhaseAwaitingSelection
		return s.broadcastLocked(), nil
	}
	return s.finishLocked(), nil
}

// Retry cancels all pending timers and restarts the session from stage 0
// with a fresh history. It is allowed from any phase.
func (s *Session) Retry() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Snapshot{}, domain.ErrSessionClosed
	}

	s.cancelTimersLocked()
	s.generation++
	s.index = 0
	s.phase = domain.PhaseAwaitingSelection
	s.selected = ""
	s.history = nil
	s.coins = 0
	s.verdict = nil
	return s.broadcastLocked(), nil
}

// Close disposes the session: pending timers are cancelled synchronously and
// subscriber channels are closed. Further commands fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelTimersLocked()
	s.generation++
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current read model.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot on every transition,
// primed with the current state. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) onRevealElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.phase != domain.PhaseRevealGated {
		return
	}
	s.phase = domain.PhaseReadyToAdvance
	s.broadcastLocked()
}

// onSettleElapsed auto-finishes the last stage. It races the explicit finish
// Advance; whichever runs first settles, the loser sees PhaseFinished and
// bails.
func (s *Session) onSettleElapsed(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		return
	}
	if s.index != s.catalog.Len()-1 || s.phase != domain.PhaseReadyToAdvance {
		return
	}
	s.finishLocked()
}

func (s *Session) finishLocked() domain.Snapshot {
	s.cancelTimersLocked()
	verdict := settleVerdict(s.history, s.catalog.Len(), s.plan)
	s.verdict = &verdict
	s.phase = domain.PhaseFinished
	return s.broadcastLocked()
}

func (s *Session) cancelTimersLocked() {
	if s.stopReveal != nil {
		s.stopReveal()
		s.stopReveal = nil
	}
	if s.stopSettle != nil {
		s.stopSettle()
		s.stopSettle = nil
	}
}

// completion builds the submission record for a settled, passed attempt.
func (s *Session) completion() (domain.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Completion{}, domain.ErrSessionClosed
	}
	if s.verdict == nil {
		return domain.Completion{}, domain.ErrVerdictPending
	}
	if !s.verdict.Passed {
		return domain.Completion{}, domain.ErrNothingToSubmit
	}
	return domain.Completion{
		SessionID:    s.id,
		GameID:       s.gameID,
		PlayerID:     s.playerID,
		CorrectCount: s.verdict.CorrectCount,
		CoinsAwarded: s.verdict.CoinsAwarded,
		XPAwarded:    s.verdict.XPAwarded,
		CompletedAt:  s.now(),
	}, nil
}

func (s *Session) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow host never blocks transitions.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	total := s.catalog.Len()
	stage := s.catalog.Stages[s.index]

	snap := domain.Snapshot{
		SessionID:    s.id,
		GameID:       s.gameID,
		CurrentIndex: s.index,
		TotalStages:  total,
		Phase:        s.phase,
		Prompt:       stage.Prompt,
		Subtitle:     fmt.Sprintf("%d / %d", s.index+1, total),
		Progress:     float64(len(s.history)) / float64(total),
		RunningCoins: s.coins,
		CanProceed:   s.phase == domain.PhaseReadyToAdvance,
		UpdatedAt:    s.now(),
	}
	if s.selected != "" {
		snap.SelectedOptionID = s.selected
		if option, ok := stage.Option(s.selected); ok {
			snap.Reflection = option.Reflection
		}
	}
	if s.verdict != nil {
		verdict := *s.verdict
		snap.Verdict = &verdict
		snap.ShouldSubmitCompletion = verdict.Passed
	}
	return snap
}
