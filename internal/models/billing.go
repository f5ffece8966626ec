package models

import "time"

// Proforma is derived from exactly one Offer.
type Proforma struct {
	Document
	Offre Offer `json:"offre"`
}

type ProformaWrite struct {
	DocumentWrite
	Offre uint `json:"offre" validate:"required"`
}

func (p Proforma) ToWrite() ProformaWrite {
	return ProformaWrite{DocumentWrite: p.toWrite(), Offre: p.Offre.ID}
}

func (p Proforma) WithStatus(s DocumentStatus, _ time.Time) Proforma {
	p.Statut = s
	return p
}

// Invoice (facture) is derived from exactly one Proforma.
type Invoice struct {
	Document
	Proforma Proforma `json:"proforma"`
}

type InvoiceWrite struct {
	DocumentWrite
	Proforma uint `json:"proforma" validate:"required"`
}

func (i Invoice) ToWrite() InvoiceWrite {
	return InvoiceWrite{DocumentWrite: i.toWrite(), Proforma: i.Proforma.ID}
}

func (i Invoice) WithStatus(s DocumentStatus, _ time.Time) Invoice {
	i.Statut = s
	return i
}

// Report (rapport) is derived from exactly one Proforma.
type Report struct {
	Document
	Proforma Proforma `json:"proforma"`
}

type ReportWrite struct {
	DocumentWrite
	Proforma uint `json:"proforma" validate:"required"`
}

func (r Report) ToWrite() ReportWrite {
	return ReportWrite{DocumentWrite: r.toWrite(), Proforma: r.Proforma.ID}
}

func (r Report) WithStatus(s DocumentStatus, _ time.Time) Report {
	r.Statut = s
	return r
}
