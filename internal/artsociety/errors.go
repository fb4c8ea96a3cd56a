package artsociety

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps any failure talking to the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidPayload   = errors.New("invalid payload")
	// ErrSchemaMismatch means a required column is missing from a table.
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrPartialWrite   = errors.New("partial write")
	ErrLocked         = errors.New("prestige order locked")
)

// Step names reported with partial write failures.
const (
	StepIdentities = "identities"
	StepSnapshot   = "snapshot"
	StepAggregates = "aggregates"
	StepLineup     = "lineup"

	StepPlayers = "players"
	StepGames   = "games"
	StepLineups = "lineups"
)

// StepError reports which step of a multi-step write failed. Earlier steps
// may have been applied, in which case it matches ErrPartialWrite. Identity
// resolution and the player import run first, so nothing is written yet
// when they fail.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Step == StepIdentities || e.Step == StepPlayers {
		return []error{e.Err}
	}
	return []error{ErrPartialWrite, e.Err}
}

// WrapStep tags err with step. A nil err stays nil.
func WrapStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}

// StepOf returns the failed step name, or "" when err carries none.
func StepOf(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}

// Invalidf builds an ErrInvalidPayload error.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}
