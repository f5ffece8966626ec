package services

import (
	"context"

	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/workflow"
)

// BillingService drives the Offer -> Proforma -> {Invoice, Report} chain.
type BillingService struct {
	offers    *OfferStore
	proformas *ProformaStore
	invoices  *InvoiceStore
	reports   *ReportStore
	engine    *workflow.Engine
}

func NewBillingService(st *Stores, engine *workflow.Engine) *BillingService {
	return &BillingService{
		offers:    st.Offers,
		proformas: st.Proformas,
		invoices:  st.Invoices,
		reports:   st.Reports,
		engine:    engine,
	}
}

func (s *BillingService) ProformaFromOffer(ctx context.Context, offerID uint) (models.Proforma, error) {
	offer, err := current(ctx, s.offers, offerID)
	if err != nil {
		return models.Proforma{}, err
	}
	w, err := derivation.ProformaFromOffer(&offer)
	if err != nil {
		return models.Proforma{}, err
	}
	return s.proformas.Create(ctx, w)
}

func (s *BillingService) UpdateProforma(ctx context.Context, id uint, w models.ProformaWrite) (models.Proforma, error) {
	offer, err := current(ctx, s.offers, w.Offre)
	if err != nil {
		return models.Proforma{}, err
	}
	if err := derivation.CheckProforma(w, offer); err != nil {
		return models.Proforma{}, err
	}
	return s.proformas.Update(ctx, id, w)
}

func (s *BillingService) InvoiceFromProforma(ctx context.Context, proformaID uint) (models.Invoice, error) {
	p, err := current(ctx, s.proformas, proformaID)
	if err != nil {
		return models.Invoice{}, err
	}
	w, err := derivation.InvoiceFromProforma(&p)
	if err != nil {
		return models.Invoice{}, err
	}
	return s.invoices.Create(ctx, w)
}

func (s *BillingService) UpdateInvoice(ctx context.Context, id uint, w models.InvoiceWrite) (models.Invoice, error) {
	p, err := current(ctx, s.proformas, w.Proforma)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := derivation.CheckProformaChild(w.DocumentWrite, w.Proforma, p); err != nil {
		return models.Invoice{}, err
	}
	return s.invoices.Update(ctx, id, w)
}

func (s *BillingService) ReportFromProforma(ctx context.Context, proformaID uint) (models.Report, error) {
	p, err := current(ctx, s.proformas, proformaID)
	if err != nil {
		return models.Report{}, err
	}
	w, err := derivation.ReportFromProforma(&p)
	if err != nil {
		return models.Report{}, err
	}
	return s.reports.Create(ctx, w)
}

func (s *BillingService) UpdateReport(ctx context.Context, id uint, w models.ReportWrite) (models.Report, error) {
	p, err := current(ctx, s.proformas, w.Proforma)
	if err != nil {
		return models.Report{}, err
	}
	if err := derivation.CheckProformaChild(w.DocumentWrite, w.Proforma, p); err != nil {
		return models.Report{}, err
	}
	return s.reports.Update(ctx, id, w)
}

func (s *BillingService) ChangeProformaStatus(ctx context.Context, id uint, next models.DocumentStatus) (models.Proforma, error) {
	return changeStatus(ctx, s.engine, s.proformas, id, next)
}

func (s *BillingService) ChangeInvoiceStatus(ctx context.Context, id uint, next models.DocumentStatus) (models.Invoice, error) {
	return changeStatus(ctx, s.engine, s.invoices, id, next)
}

func (s *BillingService) ChangeReportStatus(ctx context.Context, id uint, next models.DocumentStatus) (models.Report, error) {
	return changeStatus(ctx, s.engine, s.reports, id, next)
}

// ProformasOfOffer returns the cached proformas derived from one offer.
func (s *BillingService) ProformasOfOffer(offerID uint) []models.Proforma {
	return s.proformas.Filter(func(p models.Proforma) bool { return p.Offre.ID == offerID })
}

// OverrideInvoiceStatus corrects a VALIDE or REFUSE invoice.
func (s *BillingService) OverrideInvoiceStatus(ctx context.Context, id uint, next models.DocumentStatus, reason string) (models.Invoice, error) {
	return overrideStatus(ctx, s.engine, s.invoices, id, next, reason)
}
