package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/workflow"
)

type OfferService struct {
	offers   *OfferStore
	products *ProductStore
	engine   *workflow.Engine
}

func NewOfferService(st *Stores, engine *workflow.Engine) *OfferService {
	return &OfferService{offers: st.Offers, products: st.Products, engine: engine}
}

// Create persists a new offer. It always starts in BROUILLON.
func (s *OfferService) Create(ctx context.Context, w models.OfferWrite) (models.Offer, error) {
	if err := derivation.CheckOffer(w); err != nil {
		return models.Offer{}, err
	}
	w.Statut = models.StatusBrouillon
	w.DateValidation = nil
	w.DateModification = s.engine.Now()
	return s.offers.Create(ctx, w)
}

// Update replaces the offer. Status and date_validation are kept; date_modification
// is refreshed on every call, even when nothing else changed.
func (s *OfferService) Update(ctx context.Context, id uint, w models.OfferWrite) (models.Offer, error) {
	if err := derivation.CheckOffer(w); err != nil {
		return models.Offer{}, err
	}
	cur, err := current(ctx, s.offers, id)
	if err != nil {
		return models.Offer{}, err
	}
	w.Statut = cur.Statut
	w.DateValidation = cur.DateValidation
	w.DateModification = s.engine.Now()
	return s.offers.Update(ctx, id, w)
}

// ChangeStatus moves the offer along the document graph. Leaving BROUILLON
// requires at least one product and one site.
func (s *OfferService) ChangeStatus(ctx context.Context, id uint, next models.DocumentStatus) (models.Offer, error) {
	cur, err := current(ctx, s.offers, id)
	if err != nil {
		return models.Offer{}, err
	}
	if _, err := workflow.Transition(s.engine, cur, next); err != nil {
		return models.Offer{}, err
	}
	if err := derivation.CheckOfferLeavesDraft(cur, next); err != nil {
		return models.Offer{}, err
	}
	return s.offers.ChangeStatus(ctx, id, string(next))
}

// OverrideStatus corrects a VALIDE or REFUSE offer. The reason is logged and sent along.
func (s *OfferService) OverrideStatus(ctx context.Context, id uint, next models.DocumentStatus, reason string) (models.Offer, error) {
	return overrideStatus(ctx, s.engine, s.offers, id, next, reason)
}

// AllowedTransitions lists the statuses the offer can move to.
func (s *OfferService) AllowedTransitions(ctx context.Context, id uint) ([]models.DocumentStatus, error) {
	cur, err := current(ctx, s.offers, id)
	if err != nil {
		return nil, err
	}
	return workflow.AllowedTransitions(cur.Statut), nil
}

func (s *OfferService) Delete(ctx context.Context, id uint) error {
	return s.offers.Delete(ctx, id)
}

// NewDraft starts an offer draft over the cached product catalog.
func (s *OfferService) NewDraft() *Draft {
	return &Draft{catalog: s.products.Items()}
}

// EditDraft starts a draft from an existing offer.
func (s *OfferService) EditDraft(offer models.Offer) *Draft {
	d := s.NewDraft()
	w := offer.ToWrite()
	d.entity, d.client = w.Entity, w.Client
	d.products, d.sites = w.Produits, w.Sites
	if w.Category != nil {
		d.category = *w.Category
	}
	return d
}

// Draft builds an offer payload. The category filter only narrows what can be
// added next: products chosen before the filter changed stay selected.
type Draft struct {
	catalog  []models.Product
	entity   uint
	client   uint
	category uint
	products []uint
	sites    []uint
}

func (d *Draft) SetEntity(id uint) { d.entity = id }

func (d *Draft) SetClient(id uint) { d.client = id }

// FilterCategory restricts future product additions. Zero removes the filter.
func (d *Draft) FilterCategory(id uint) { d.category = id }

// Selectable returns the catalog products that can currently be added.
func (d *Draft) Selectable() []models.Product {
	return derivation.SelectableProducts(d.catalog, d.category)
}

// AddProduct selects a product allowed by the current filter.
func (d *Draft) AddProduct(id uint) error {
	if slices.Contains(d.products, id) {
		return nil
	}
	for _, p := range d.Selectable() {
		if p.ID == id {
			d.products = append(d.products, id)
			return nil
		}
	}
	return fmt.Errorf("product %d is not selectable with category filter %d", id, d.category)
}

func (d *Draft) RemoveProduct(id uint) {
	d.products = slices.DeleteFunc(d.products, func(p uint) bool { return p == id })
}

func (d *Draft) AddSite(id uint) {
	if !slices.Contains(d.sites, id) {
		d.sites = append(d.sites, id)
	}
}

func (d *Draft) RemoveSite(id uint) {
	d.sites = slices.DeleteFunc(d.sites, func(s uint) bool { return s == id })
}

func (d *Draft) Products() []uint { return slices.Clone(d.products) }

// Write returns the payload for Create or Update.
func (d *Draft) Write() models.OfferWrite {
	w := models.OfferWrite{
		DocumentWrite: models.DocumentWrite{Entity: d.entity, Client: d.client},
		Produits:      slices.Clone(d.products),
		Sites:         slices.Clone(d.sites),
	}
	if d.category != 0 {
		c := d.category
		w.Category = &c
	}
	return w
}
