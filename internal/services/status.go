package services

import (
	"context"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/store"
	"github.com/diewo77/backoffice/internal/workflow"
)

// statusDoc is a read shape that a store caches and the status engine can move.
type statusDoc[R any] interface {
	store.Identifiable
	workflow.Transitionable[R]
}

// changeStatus validates the transition locally, then persists it. Nothing is
// sent when the pair is not an edge of the graph.
func changeStatus[R statusDoc[R], W any](ctx context.Context, e *workflow.Engine, s *store.Store[R, W], id uint, next models.DocumentStatus) (R, error) {
	cur, err := current(ctx, s, id)
	if err != nil {
		var zero R
		return zero, err
	}
	if _, err := workflow.Transition(e, cur, next); err != nil {
		var zero R
		return zero, err
	}
	return s.ChangeStatus(ctx, id, string(next))
}

func overrideStatus[R statusDoc[R], W any](ctx context.Context, e *workflow.Engine, s *store.Store[R, W], id uint, next models.DocumentStatus, reason string) (R, error) {
	cur, err := current(ctx, s, id)
	if err != nil {
		var zero R
		return zero, err
	}
	if _, err := workflow.Override(e, id, cur, next, reason); err != nil {
		var zero R
		return zero, err
	}
	return s.OverrideStatus(ctx, id, string(next), reason)
}
