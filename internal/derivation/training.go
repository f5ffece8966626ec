package derivation

import (
	"strings"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

// DefaultTrainingCategoryCode is the category code of training products.
const DefaultTrainingCategoryCode = "FOR"

// TrainingSchedule is the start and end datetime of a training session.
type TrainingSchedule struct {
	Start time.Time
	End   time.Time
}

// TrainingMeta carries the descriptive fields of a training.
type TrainingMeta struct {
	Titre       string
	Description *string
}

// EligibleProducts returns the offer products whose category code is trainingCode.
func EligibleProducts(offer models.Offer, trainingCode string) []models.Product {
	var out []models.Product
	for _, p := range offer.Produits {
		if strings.EqualFold(p.Category.Code, trainingCode) {
			out = append(out, p)
		}
	}
	return out
}

// CheckTrainingProduct fails with *IneligibleProductError unless productID is an
// eligible product of the affair's offer.
func CheckTrainingProduct(affair models.Affair, productID uint, trainingCode string) error {
	eligible := EligibleProducts(affair.Offre, trainingCode)
	base := IneligibleProductError{AffairID: affair.ID, OfferID: affair.Offre.ID, ProductID: productID}
	if len(eligible) == 0 {
		base.Reason = ReasonNoTrainingProducts
		return &base
	}
	for _, p := range eligible {
		if p.ID == productID {
			return nil
		}
	}
	if affair.Offre.HasProduct(productID) {
		base.Reason = ReasonNotTrainingProduct
	} else {
		base.Reason = ReasonNotInOffer
	}
	return &base
}

// TrainingFromAffair builds the creation payload of a training.
func TrainingFromAffair(affair *models.Affair, productID uint, s TrainingSchedule, meta TrainingMeta, trainingCode string) (models.TrainingWrite, error) {
	if affair == nil || affair.ID == 0 {
		return models.TrainingWrite{}, &MissingSourceError{Source: "affaire"}
	}
	w := models.TrainingWrite{
		Titre:       meta.Titre,
		Client:      affair.Client.ID,
		Affaire:     affair.ID,
		Produit:     productID,
		DateDebut:   s.Start,
		DateFin:     s.End,
		Description: meta.Description,
	}
	if err := CheckTraining(w, *affair, trainingCode); err != nil {
		return models.TrainingWrite{}, err
	}
	return w, nil
}

// CheckTraining validates a training payload against its source affair.
func CheckTraining(w models.TrainingWrite, affair models.Affair, trainingCode string) error {
	if err := validation.Check(w).Err(); err != nil {
		return err
	}
	if w.Affaire != affair.ID {
		return &LineageMismatchError{Field: "affaire", Want: affair.ID, Got: w.Affaire}
	}
	if w.Client != affair.Client.ID {
		return &EntityMismatchError{Field: "client", Source: affair.Client.ID, Got: w.Client}
	}
	if err := CheckTrainingProduct(affair, w.Produit, trainingCode); err != nil {
		return err
	}
	return CheckSchedule("date_fin", w.DateDebut, w.DateFin)
}

// CheckParticipant validates a participant payload against its training.
func CheckParticipant(w models.ParticipantWrite, training models.Training) error {
	if err := validation.Check(w).Err(); err != nil {
		return err
	}
	if w.Formation != training.ID {
		return &LineageMismatchError{Field: "formation", Want: training.ID, Got: w.Formation}
	}
	return nil
}
