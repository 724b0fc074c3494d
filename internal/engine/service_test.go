package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"scenario-assessment-service/internal/domain"
	"scenario-assessment-service/internal/engine"
	"scenario-assessment-service/internal/infra/memory"
)

func testCatalogs(t *testing.T) map[string]domain.Catalog {
	t.Helper()
	stages := func(n int) []domain.Stage {
		out := make([]domain.Stage, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, domain.Stage{
				ID:     fmt.Sprintf("s%d", i+1),
				Prompt: "scenario",
				Options: []domain.Option{
					{ID: "good", Label: "Safe", Reflection: "Correct.", Correct: true},
					{ID: "bad", Label: "Unsafe", Reflection: "Nope."},
				},
				Reward: 5,
			})
		}
		return out
	}

	planned, err := domain.NewCatalog("planned-game", stages(2))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	unplanned, err := domain.NewCatalog("unplanned-game", stages(1))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return map[string]domain.Catalog{
		planned.GameID:   planned,
		unplanned.GameID: unplanned,
	}
}

func newTestService(t *testing.T) (*engine.Service, *engine.ManualScheduler, *memory.CompletionLog) {
	t.Helper()
	sched := engine.NewManualScheduler()
	catalogs := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(testCatalogs(t)), 5*time.Minute)
	rewards := memory.NewStaticRewardSource(map[string]domain.RewardPlan{
		"planned-game": {CoinsPerStage: 5, TotalCoins: 10, TotalXP: 25},
	})
	completions := memory.NewCompletionLog()
	fallback := domain.RewardPlan{CoinsPerStage: 5, TotalCoins: 20, TotalXP: 40}
	service := engine.NewServiceWithScheduler(
		memory.NewSessionStore(), catalogs, rewards, completions,
		engine.DefaultTiming(), fallback, sched,
	)
	return service, sched, completions
}

// finishGame answers every stage correctly and advances through to the verdict.
func finishGame(t *testing.T, service *engine.Service, sched *engine.ManualScheduler, sessionID string, stages int) domain.Snapshot {
	t.Helper()
	var snap domain.Snapshot
	for i := 1; i <= stages; i++ {
		if _, err := service.SelectOption(sessionID, fmt.Sprintf("s%d", i), "good"); err != nil {
			t.Fatalf("select stage %d: %v", i, err)
		}
		sched.FireNext() // reveal gate
		var err error
		snap, err = service.Advance(sessionID)
		if err != nil {
			t.Fatalf("advance stage %d: %v", i, err)
		}
	}
	return snap
}

func TestStartUnknownGame(t *testing.T) {
	service, _, _ := newTestService(t)
	_, err := service.Start(context.Background(), "missing-game", "p1")
	if !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected catalog not found, got %v", err)
	}
}

func TestFullFlowAndSubmission(t *testing.T) {
	ctx := context.Background()
	service, sched, completions := newTestService(t)

	started, err := service.Start(ctx, "planned-game", "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Phase != domain.PhaseAwaitingSelection || started.TotalStages != 2 {
		t.Fatalf("unexpected initial snapshot: %+v", started)
	}

	snap := finishGame(t, service, sched, started.SessionID, 2)
	if snap.Phase != domain.PhaseFinished || snap.Verdict == nil {
		t.Fatalf("expected finished session, got %+v", snap)
	}
	if snap.Verdict.CoinsAwarded != 10 || snap.Verdict.XPAwarded != 25 {
		t.Fatalf("expected planned-game payout, got %+v", snap.Verdict)
	}

	completion, err := service.SubmitCompletion(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if completion.GameID != "planned-game" || completion.PlayerID != "p1" || completion.CoinsAwarded != 10 {
		t.Fatalf("unexpected completion: %+v", completion)
	}

	recorded := completions.Completions()
	if len(recorded) != 1 || recorded[0].SessionID != started.SessionID {
		t.Fatalf("expected one recorded completion, got %+v", recorded)
	}
}

func TestFallbackPlanForUnplannedGame(t *testing.T) {
	ctx := context.Background()
	service, sched, _ := newTestService(t)

	started, err := service.Start(ctx, "unplanned-game", "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := finishGame(t, service, sched, started.SessionID, 1)
	if snap.Verdict == nil || snap.Verdict.CoinsAwarded != 20 || snap.Verdict.XPAwarded != 40 {
		t.Fatalf("expected fallback payout, got %+v", snap.Verdict)
	}
}

func TestSubmitBeforeFinishAndAfterFail(t *testing.T) {
	ctx := context.Background()
	service, sched, completions := newTestService(t)

	started, err := service.Start(ctx, "planned-game", "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := service.SubmitCompletion(ctx, started.SessionID); !errors.Is(err, domain.ErrVerdictPending) {
		t.Fatalf("expected verdict pending, got %v", err)
	}

	// Fail stage 1, pass stage 2.
	if _, err := service.SelectOption(started.SessionID, "s1", "bad"); err != nil {
		t.Fatalf("select: %v", err)
	}
	sched.FireNext()
	if _, err := service.Advance(started.SessionID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := service.SelectOption(started.SessionID, "s2", "good"); err != nil {
		t.Fatalf("select: %v", err)
	}
	sched.FireNext()
	if _, err := service.Advance(started.SessionID); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if _, err := service.SubmitCompletion(ctx, started.SessionID); !errors.Is(err, domain.ErrNothingToSubmit) {
		t.Fatalf("expected nothing to submit, got %v", err)
	}
	if len(completions.Completions()) != 0 {
		t.Fatalf("failed attempt was recorded")
	}
}

func TestRetryThroughService(t *testing.T) {
	ctx := context.Background()
	service, sched, _ := newTestService(t)

	started, err := service.Start(ctx, "planned-game", "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.SelectOption(started.SessionID, "s1", "bad"); err != nil {
		t.Fatalf("select: %v", err)
	}

	snap, err := service.Retry(started.SessionID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.CurrentIndex != 0 || snap.RunningCoins != 0 || snap.Phase != domain.PhaseAwaitingSelection {
		t.Fatalf("expected reset session, got %+v", snap)
	}

	// A clean second attempt passes.
	snap = finishGame(t, service, sched, started.SessionID, 2)
	if snap.Verdict == nil || !snap.Verdict.Passed {
		t.Fatalf("expected pass after retry, got %+v", snap.Verdict)
	}
}

func TestDisposeRemovesSession(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	started, err := service.Start(ctx, "planned-game", "p1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	service.Dispose(started.SessionID)
	if _, err := service.Snapshot(started.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestUnknownSessionCommands(t *testing.T) {
	service, _, _ := newTestService(t)

	if _, err := service.SelectOption("nope", "s1", "good"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := service.Advance("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, _, err := service.Subscribe("nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}
