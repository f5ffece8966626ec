package services

import (
	"context"
	"time"

	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/workflow"
)

type AffairService struct {
	affairs *AffairStore
	offers  *OfferStore
	loc     *time.Location
}

func NewAffairService(st *Stores, loc *time.Location) *AffairService {
	if loc == nil {
		loc = time.Local
	}
	return &AffairService{affairs: st.Affairs, offers: st.Offers, loc: loc}
}

// DeriveFromOffer creates an affair carrying the offer's entity and client.
func (s *AffairService) DeriveFromOffer(ctx context.Context, offerID uint, sched derivation.Schedule) (models.Affair, error) {
	if offerID == 0 {
		return models.Affair{}, &derivation.MissingSourceError{Source: "offre"}
	}
	offer, err := current(ctx, s.offers, offerID)
	if err != nil {
		return models.Affair{}, err
	}
	w, err := derivation.AffairFromOffer(&offer, sched, s.loc)
	if err != nil {
		return models.Affair{}, err
	}
	return s.affairs.Create(ctx, w)
}

// Update replaces the affair. Dates are normalized like on creation and the status is kept.
func (s *AffairService) Update(ctx context.Context, id uint, w models.AffairWrite) (models.Affair, error) {
	cur, err := current(ctx, s.affairs, id)
	if err != nil {
		return models.Affair{}, err
	}
	offer, err := current(ctx, s.offers, w.Offre)
	if err != nil {
		return models.Affair{}, err
	}
	w.Statut = cur.Statut
	w.DateDebut = derivation.StartOfDay(w.DateDebut, s.loc)
	if w.DateFinPrevue != nil {
		end := derivation.EndOfDay(*w.DateFinPrevue, s.loc)
		w.DateFinPrevue = &end
	}
	if err := derivation.CheckAffair(w, offer); err != nil {
		return models.Affair{}, err
	}
	return s.affairs.Update(ctx, id, w)
}

// ChangeStatus moves the affair along EN_COURS -> TERMINEE|ANNULEE.
func (s *AffairService) ChangeStatus(ctx context.Context, id uint, next models.AffairStatus) (models.Affair, error) {
	cur, err := current(ctx, s.affairs, id)
	if err != nil {
		return models.Affair{}, err
	}
	if err := workflow.CheckAffairTransition(cur.Statut, next); err != nil {
		return models.Affair{}, err
	}
	return s.affairs.ChangeStatus(ctx, id, string(next))
}

func (s *AffairService) Delete(ctx context.Context, id uint) error {
	return s.affairs.Delete(ctx, id)
}

// AffairsOfOffer returns the cached affairs derived from one offer.
func (s *AffairService) AffairsOfOffer(offerID uint) []models.Affair {
	return s.affairs.Filter(func(a models.Affair) bool { return a.Offre.ID == offerID })
}
