package derivation

import (
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

// Schedule is the start and optional planned end of an affair, as picked by the user.
type Schedule struct {
	Start time.Time
	End   *time.Time
}

// AffairFromOffer builds the creation payload of an affair. Entity and client are copied
// by value; the start is normalized to 00:00:00 and the planned end to 23:59:59 in loc.
func AffairFromOffer(offer *models.Offer, s Schedule, loc *time.Location) (models.AffairWrite, error) {
	if offer == nil || offer.ID == 0 {
		return models.AffairWrite{}, &MissingSourceError{Source: "offre"}
	}
	if loc == nil {
		loc = time.Local
	}
	w := models.AffairWrite{
		Offre:     offer.ID,
		Entity:    offer.Entity.ID,
		Client:    offer.Client.ID,
		DateDebut: StartOfDay(s.Start, loc),
		Statut:    models.AffaireEnCours,
	}
	if s.End != nil {
		end := EndOfDay(*s.End, loc)
		w.DateFinPrevue = &end
	}
	if err := CheckAffair(w, *offer); err != nil {
		return models.AffairWrite{}, err
	}
	return w, nil
}

// CheckAffair validates an affair payload against its source offer.
func CheckAffair(w models.AffairWrite, offer models.Offer) error {
	v := validation.Check(w)
	if w.Statut != "" && !w.Statut.Valid() {
		v["statut"] = "invalid"
	}
	if err := v.Err(); err != nil {
		return err
	}
	if w.Offre != offer.ID {
		return &LineageMismatchError{Field: "offre", Want: offer.ID, Got: w.Offre}
	}
	if err := CheckDerivedIdentity(offer.Entity.ID, offer.Client.ID, w.Entity, w.Client); err != nil {
		return err
	}
	if w.DateFinPrevue != nil {
		return CheckSchedule("date_fin_prevue", w.DateDebut, *w.DateFinPrevue)
	}
	return nil
}
