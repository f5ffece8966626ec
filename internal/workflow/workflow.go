// Package workflow is the status engine shared by every document-bearing resource.
// It performs no I/O: callers persist the returned values and refetch dependents.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/backoffice/internal/models"
)

// ErrInvalidTransition is matched by every *InvalidTransitionError through errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError names the rejected (from, to) pair.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

var documentEdges = map[models.DocumentStatus]map[models.DocumentStatus]bool{
	models.StatusBrouillon: {models.StatusEnvoye: true},
	models.StatusEnvoye:    {models.StatusValide: true, models.StatusRefuse: true},
	models.StatusRefuse:    {models.StatusBrouillon: true},
	models.StatusValide:    {},
}

var affairEdges = map[models.AffairStatus]map[models.AffairStatus]bool{
	models.AffaireEnCours:  {models.AffaireTerminee: true, models.AffaireAnnulee: true},
	models.AffaireTerminee: {},
	models.AffaireAnnulee:  {},
}

// CanTransition reports whether current -> next is an edge of the document graph.
// Self-loops are never allowed.
func CanTransition(current, next models.DocumentStatus) bool {
	return documentEdges[current][next]
}

// CanTransitionAffair is CanTransition for the affair vocabulary.
func CanTransitionAffair(current, next models.AffairStatus) bool {
	return affairEdges[current][next]
}

// AllowedTransitions returns the legal targets from current, in display order.
func AllowedTransitions(current models.DocumentStatus) []models.DocumentStatus {
	var out []models.DocumentStatus
	for _, s := range models.DocumentStatuses {
		if CanTransition(current, s) {
			out = append(out, s)
		}
	}
	return out
}

// AllowedAffairTransitions returns the legal affair targets from current.
func AllowedAffairTransitions(current models.AffairStatus) []models.AffairStatus {
	var out []models.AffairStatus
	for _, s := range models.AffairStatuses {
		if CanTransitionAffair(current, s) {
			out = append(out, s)
		}
	}
	return out
}

// Transitionable is a document value that can produce a copy of itself in another state.
type Transitionable[D any] interface {
	CurrentStatus() models.DocumentStatus
	WithStatus(s models.DocumentStatus, at time.Time) D
}

// ApplyTransition returns doc moved to next. The input is never modified.
func ApplyTransition[D Transitionable[D]](doc D, next models.DocumentStatus, at time.Time) (D, error) {
	cur := doc.CurrentStatus()
	if !CanTransition(cur, next) {
		var zero D
		return zero, &InvalidTransitionError{From: string(cur), To: string(next)}
	}
	return doc.WithStatus(next, at), nil
}

// CheckAffairTransition returns an *InvalidTransitionError when current -> next is not allowed.
func CheckAffairTransition(current, next models.AffairStatus) error {
	if !CanTransitionAffair(current, next) {
		return &InvalidTransitionError{From: string(current), To: string(next)}
	}
	return nil
}
