package db

import (
	"time"

	"github.com/diewo77/backoffice/internal/models"
)

// Apply copies a write payload into the record. Server-owned columns (id, reference,
// sequence, creation date, status) are left alone.

func (r *EntityRecord) Apply(w models.EntityWrite) {
	r.Code, r.Name = w.Code, w.Name
}

func (r *ClientRecord) Apply(w models.ClientWrite) {
	r.Nom, r.Email, r.Telephone, r.Adresse = w.Nom, w.Email, w.Telephone, w.Adresse
}

func (r *SiteRecord) Apply(w models.SiteWrite) {
	r.Nom, r.ClientID, r.Localisation, r.Description = w.Nom, w.Client, w.Localisation, w.Description
}

func (r *CategoryRecord) Apply(w models.CategoryWrite) {
	r.Code, r.Name, r.EntityID = w.Code, w.Name, w.Entity
}

func (r *ProductRecord) Apply(w models.ProductWrite) {
	r.Code, r.Name, r.CategoryID = w.Code, w.Name, w.Category
}

func (r *OfferRecord) Apply(w models.OfferWrite) {
	r.Doc.apply(w.DocumentWrite)
	r.CategoryID = w.Category
}

func (r *ProformaRecord) Apply(w models.ProformaWrite) {
	r.Doc.apply(w.DocumentWrite)
	r.OffreID = w.Offre
}

func (r *InvoiceRecord) Apply(w models.InvoiceWrite) {
	r.Doc.apply(w.DocumentWrite)
	r.ProformaID = w.Proforma
}

func (r *ReportRecord) Apply(w models.ReportWrite) {
	r.Doc.apply(w.DocumentWrite)
	r.ProformaID = w.Proforma
}

func (r *AffairRecord) Apply(w models.AffairWrite) {
	r.OffreID, r.EntityID, r.ClientID = w.Offre, w.Entity, w.Client
	r.DateDebut, r.DateFinPrevue = w.DateDebut, w.DateFinPrevue
}

func (r *TrainingRecord) Apply(w models.TrainingWrite) {
	r.Titre, r.ClientID, r.AffaireID, r.ProduitID = w.Titre, w.Client, w.Affaire, w.Produit
	r.DateDebut, r.DateFin, r.Description = w.DateDebut, w.DateFin, w.Description
}

func (r *ParticipantRecord) Apply(w models.ParticipantWrite) {
	r.Nom, r.Prenom, r.Email, r.Telephone, r.Fonction = w.Nom, w.Prenom, w.Email, w.Telephone, w.Fonction
	r.FormationID = w.Formation
}

func (r *CertificateRecord) Apply(w models.CertificateWrite) {
	r.Doc.apply(w.DocumentWrite)
	r.ProformaID, r.FormationID, r.ParticipantID = w.Proforma, w.Formation, w.Participant
	r.DetailsFormation = w.DetailsFormation
}

// Document returns the shared document columns of a document record.
func (r *OfferRecord) Document() *DocumentFields       { return &r.Doc }
func (r *ProformaRecord) Document() *DocumentFields    { return &r.Doc }
func (r *InvoiceRecord) Document() *DocumentFields     { return &r.Doc }
func (r *ReportRecord) Document() *DocumentFields      { return &r.Doc }
func (r *CertificateRecord) Document() *DocumentFields { return &r.Doc }

// Status and SetStatus expose the lifecycle column to the status handler.

func (d *DocumentFields) Status() string { return d.Statut }

func (d *DocumentFields) SetStatus(s string, _ time.Time) { d.Statut = s }

func (r *ProformaRecord) Status() string                      { return r.Doc.Statut }
func (r *ProformaRecord) SetStatus(s string, at time.Time)    { r.Doc.SetStatus(s, at) }
func (r *InvoiceRecord) Status() string                       { return r.Doc.Statut }
func (r *InvoiceRecord) SetStatus(s string, at time.Time)     { r.Doc.SetStatus(s, at) }
func (r *ReportRecord) Status() string                        { return r.Doc.Statut }
func (r *ReportRecord) SetStatus(s string, at time.Time)      { r.Doc.SetStatus(s, at) }
func (r *CertificateRecord) Status() string                   { return r.Doc.Statut }
func (r *CertificateRecord) SetStatus(s string, at time.Time) { r.Doc.SetStatus(s, at) }
func (r *OfferRecord) Status() string                         { return r.Doc.Statut }

// SetStatus stamps date_validation when the offer enters VALIDE.
func (r *OfferRecord) SetStatus(s string, at time.Time) {
	r.Doc.Statut = s
	if models.DocumentStatus(s) == models.StatusValide {
		t := at
		r.DateValidation = &t
	}
}

func (r *AffairRecord) Status() string                  { return r.Statut }
func (r *AffairRecord) SetStatus(s string, _ time.Time) { r.Statut = s }
