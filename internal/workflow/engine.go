package workflow

import (
	"errors"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"go.uber.org/zap"
)

// ErrOverrideReason is returned when an override is requested without a reason.
var ErrOverrideReason = errors.New("status override requires a reason")

// Engine carries the clock and logger used by transitions. Transition rules are package-level.
type Engine struct {
	now    func() time.Time
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{now: time.Now, logger: logger}
}

// WithClock replaces the engine clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	return &Engine{now: now, logger: e.logger}
}

func (e *Engine) Now() time.Time { return e.now() }

// Transition applies next to doc at the engine's current time.
func Transition[D Transitionable[D]](e *Engine, doc D, next models.DocumentStatus) (D, error) {
	return ApplyTransition(doc, next, e.now())
}

// CheckOverride validates a manual correction out of a terminal state.
// Only VALIDE and REFUSE documents can be overridden, never to the same state.
func CheckOverride(current, next models.DocumentStatus, reason string) error {
	if reason == "" {
		return ErrOverrideReason
	}
	if !current.IsTerminal() || current == next || !next.Valid() {
		return &InvalidTransitionError{From: string(current), To: string(next)}
	}
	return nil
}

// Override forces doc out of a terminal state and logs the correction.
func Override[D Transitionable[D]](e *Engine, id uint, doc D, next models.DocumentStatus, reason string) (D, error) {
	cur := doc.CurrentStatus()
	if err := CheckOverride(cur, next, reason); err != nil {
		var zero D
		return zero, err
	}
	e.LogOverride(id, cur, next, reason)
	return doc.WithStatus(next, e.now()), nil
}

// LogOverride records a manual status correction.
func (e *Engine) LogOverride(id uint, from, to models.DocumentStatus, reason string) {
	e.logger.Warn("document status overridden",
		zap.Uint("id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason),
	)
}
