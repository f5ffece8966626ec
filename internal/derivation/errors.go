package derivation

import (
	"fmt"
	"time"

	"github.com/diewo77/backoffice/validation"
)

// MissingSourceError is returned when a derivation is attempted without its source document.
type MissingSourceError struct {
	Source string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source %s", e.Source)
}

// InvalidScheduleError is returned when an end date precedes its start date.
type InvalidScheduleError struct {
	Field string
	Start time.Time
	End   time.Time
}

// Violations reports the schedule failure in the per-field form used for validation errors.
func (e *InvalidScheduleError) Violations() validation.Violations {
	v := make(validation.Violations)
	validation.NotBefore(e.Field, e.Start, e.End, v)
	return v
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %s %s is before start %s",
		e.Field, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// IneligibleProductError is returned when a training is requested for a product
// that is not a training-category product of the affair's offer.
type IneligibleProductError struct {
	AffairID  uint
	OfferID   uint
	ProductID uint
	Reason    string
}

func (e *IneligibleProductError) Error() string {
	return fmt.Sprintf("product %d is not eligible for a training on affair %d (offer %d): %s",
		e.ProductID, e.AffairID, e.OfferID, e.Reason)
}

// Reasons carried by IneligibleProductError.
const (
	ReasonNoTrainingProducts = "offer has no training product"
	ReasonNotInOffer         = "product is not part of the offer"
	ReasonNotTrainingProduct = "product is not in the training category"
)

// LineageMismatchError is returned when a certificate's proforma, training and
// participant do not come from the same offer lineage.
type LineageMismatchError struct {
	Field string
	Want  uint
	Got   uint
}

func (e *LineageMismatchError) Error() string {
	return fmt.Sprintf("lineage mismatch on %s: want %d, got %d", e.Field, e.Want, e.Got)
}

// EntityMismatchError is returned when a derived document does not carry the
// entity or client of its source.
type EntityMismatchError struct {
	Field  string
	Source uint
	Got    uint
}

func (e *EntityMismatchError) Error() string {
	return fmt.Sprintf("%s %d does not match source %s %d", e.Field, e.Got, e.Field, e.Source)
}
