package derivation

import (
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

func draftOf(d models.Document) models.DocumentWrite {
	return models.DocumentWrite{Entity: d.Entity.ID, Client: d.Client.ID, Statut: models.StatusBrouillon}
}

// ProformaFromOffer builds the creation payload of a proforma.
func ProformaFromOffer(offer *models.Offer) (models.ProformaWrite, error) {
	if offer == nil || offer.ID == 0 {
		return models.ProformaWrite{}, &MissingSourceError{Source: "offre"}
	}
	return models.ProformaWrite{DocumentWrite: draftOf(offer.Document), Offre: offer.ID}, nil
}

// InvoiceFromProforma builds the creation payload of an invoice.
func InvoiceFromProforma(p *models.Proforma) (models.InvoiceWrite, error) {
	if p == nil || p.ID == 0 {
		return models.InvoiceWrite{}, &MissingSourceError{Source: "proforma"}
	}
	return models.InvoiceWrite{DocumentWrite: draftOf(p.Document), Proforma: p.ID}, nil
}

// ReportFromProforma builds the creation payload of a report.
func ReportFromProforma(p *models.Proforma) (models.ReportWrite, error) {
	if p == nil || p.ID == 0 {
		return models.ReportWrite{}, &MissingSourceError{Source: "proforma"}
	}
	return models.ReportWrite{DocumentWrite: draftOf(p.Document), Proforma: p.ID}, nil
}

// CheckProforma validates a proforma payload against its source offer.
func CheckProforma(w models.ProformaWrite, offer models.Offer) error {
	if err := validation.Check(w).Err(); err != nil {
		return err
	}
	if w.Offre != offer.ID {
		return &LineageMismatchError{Field: "offre", Want: offer.ID, Got: w.Offre}
	}
	return CheckDerivedIdentity(offer.Entity.ID, offer.Client.ID, w.Entity, w.Client)
}

// CheckProformaChild validates an invoice or report payload against its proforma.
func CheckProformaChild(doc models.DocumentWrite, proformaID uint, p models.Proforma) error {
	v := validation.Check(doc)
	validation.RequiredID("proforma", proformaID, v)
	if err := v.Err(); err != nil {
		return err
	}
	if proformaID != p.ID {
		return &LineageMismatchError{Field: "proforma", Want: p.ID, Got: proformaID}
	}
	return CheckDerivedIdentity(p.Entity.ID, p.Client.ID, doc.Entity, doc.Client)
}
