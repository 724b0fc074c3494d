package domain

import "time"

// Option represents one selectable answer for a stage.
type Option struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Reflection string `json:"reflection"`
	Correct    bool   `json:"correct"`
}

// Stage models one scenario screen: a prompt and a fixed set of options.
type Stage struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	// Reward is the per-stage weight carried in catalog data. The settlement
	// policy deliberately ignores it; the payout is all-or-nothing from the
	// game's RewardPlan.
	Reward int `json:"reward"`
}

// Option returns the option with the given ID, if present.
func (s Stage) Option(optionID string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Catalog is the fixed, ordered list of stages for one game. Construct via
// NewCatalog so the invariants hold for the catalog's lifetime.
type Catalog struct {
	GameID string  `json:"gameId"`
	Stages []Stage `json:"stages"`
}

// Len returns the number of stages.
func (c Catalog) Len() int { return len(c.Stages) }

// RewardPlan describes the per-game payout looked up from the reward catalog.
type RewardPlan struct {
	CoinsPerStage int `json:"coinsPerStage"`
	TotalCoins    int `json:"totalCoins"`
	TotalXP       int `json:"totalXp"`
}

// AnswerRecord is one entry of a session's play history.
type AnswerRecord struct {
	StageID string `json:"stageId"`
	Correct bool   `json:"correct"`
}

// Verdict is the settled outcome of a completed play-through.
type Verdict struct {
	CorrectCount int  `json:"correctCount"`
	Passed       bool `json:"passed"`
	CoinsAwarded int  `json:"coinsAwarded"`
	XPAwarded    int  `json:"xpAwarded"`
}

// Phase is the gating state of an assessment session.
type Phase string

const (
	PhaseAwaitingSelection Phase = "awaiting_selection"
	PhaseRevealGated       Phase = "reveal_gated"
	PhaseReadyToAdvance    Phase = "ready_to_advance"
	PhaseFinished          Phase = "finished"
)

// Snapshot is the read model a host UI binds to. It is a value; mutating it
// has no effect on the session.
type Snapshot struct {
	SessionID              string    `json:"sessionId"`
	GameID                 string    `json:"gameId"`
	CurrentIndex           int       `json:"currentIndex"`
	TotalStages            int       `json:"totalStages"`
	Phase                  Phase     `json:"phase"`
	Prompt                 string    `json:"prompt"`
	SelectedOptionID       string    `json:"selectedOptionId,omitempty"`
	Reflection             string    `json:"reflection,omitempty"`
	Subtitle               string    `json:"subtitle"`
	Progress               float64   `json:"progress"`
	RunningCoins           int       `json:"runningCoins"`
	CanProceed             bool      `json:"canProceed"`
	Verdict                *Verdict  `json:"verdict,omitempty"`
	ShouldSubmitCompletion bool      `json:"shouldSubmitCompletion"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Completion is the record the host submits when a passed attempt finishes.
type Completion struct {
	SessionID    string    `json:"sessionId"`
	GameID       string    `json:"gameId"`
	PlayerID     string    `json:"playerId"`
	CorrectCount int       `json:"correctCount"`
	CoinsAwarded int       `json:"coinsAwarded"`
	XPAwarded    int       `json:"xpAwarded"`
	CompletedAt  time.Time `json:"completedAt"`
}
