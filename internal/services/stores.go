package services

import (
	"context"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/store"
)

type (
	EntityStore      = store.Store[models.Entity, models.EntityWrite]
	ClientStore      = store.Store[models.Client, models.ClientWrite]
	SiteStore        = store.Store[models.Site, models.SiteWrite]
	CategoryStore    = store.Store[models.Category, models.CategoryWrite]
	ProductStore     = store.Store[models.Product, models.ProductWrite]
	OfferStore       = store.Store[models.Offer, models.OfferWrite]
	ProformaStore    = store.Store[models.Proforma, models.ProformaWrite]
	InvoiceStore     = store.Store[models.Invoice, models.InvoiceWrite]
	ReportStore      = store.Store[models.Report, models.ReportWrite]
	AffairStore      = store.Store[models.Affair, models.AffairWrite]
	TrainingStore    = store.Store[models.Training, models.TrainingWrite]
	ParticipantStore = store.Store[models.Participant, models.ParticipantWrite]
	CertificateStore = store.Store[models.Certificate, models.CertificateWrite]
)

// Stores is the full set of collection stores. Each one owns its collection;
// cross-store joins go through identifiers.
type Stores struct {
	Entities     *EntityStore
	Clients      *ClientStore
	Sites        *SiteStore
	Categories   *CategoryStore
	Products     *ProductStore
	Offers       *OfferStore
	Proformas    *ProformaStore
	Invoices     *InvoiceStore
	Reports      *ReportStore
	Affairs      *AffairStore
	Trainings    *TrainingStore
	Participants *ParticipantStore
	Certificates *CertificateStore
}

// Loader is the part of a store needed to load or refresh it.
type Loader interface {
	Name() string
	EnsureLoaded(ctx context.Context) error
	Reload(ctx context.Context) error
}

// Loaders lists every store, registries first.
func (s *Stores) Loaders() []Loader {
	return []Loader{
		s.Entities, s.Clients, s.Sites, s.Categories, s.Products,
		s.Offers, s.Proformas, s.Invoices, s.Reports,
		s.Affairs, s.Trainings, s.Participants, s.Certificates,
	}
}

// current returns the cached item, fetching it when it is not cached yet.
func current[R store.Identifiable, W any](ctx context.Context, s *store.Store[R, W], id uint) (R, error) {
	if it, ok := s.Lookup(id); ok {
		return it, nil
	}
	return s.FetchByID(ctx, id)
}
