package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogNotFound indicates the stage catalog could not be loaded.
	ErrCatalogNotFound = errors.New("stage catalog not found")
	// ErrPlanNotFound indicates no reward plan exists for the game.
	ErrPlanNotFound = errors.New("reward plan not found")
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("assessment session not found")
	// ErrSessionClosed is returned when a command targets a disposed session.
	ErrSessionClosed = errors.New("assessment session closed")
	// ErrStageMismatch indicates a selection that does not target the current stage.
	ErrStageMismatch = errors.New("selection does not target the current stage")
	// ErrOptionNotFound indicates a submitted option ID is invalid for the stage.
	ErrOptionNotFound = errors.New("option not found")
	// ErrVerdictPending is returned when completion is submitted before the session finished.
	ErrVerdictPending = errors.New("verdict not settled yet")
	// ErrNothingToSubmit is returned when a failed attempt is submitted; failed
	// attempts award nothing and are not recorded.
	ErrNothingToSubmit = errors.New("failed attempt has nothing to submit")
)

// CatalogError reports a malformed stage catalog. It is raised at construction
// and is never recoverable.
type CatalogError struct {
	GameID  string
	StageID string
	Reason  string
}

func (e *CatalogError) Error() string {
	if e.StageID == "" {
		return fmt.Sprintf("invalid catalog %q: %s", e.GameID, e.Reason)
	}
	return fmt.Sprintf("invalid catalog %q: stage %q: %s", e.GameID, e.StageID, e.Reason)
}

// InvalidTransitionError reports a command issued out of protocol, e.g.
// Advance while the session still awaits a selection.
type InvalidTransitionError struct {
	Command string
	Phase   Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s", e.Command, e.Phase)
}
