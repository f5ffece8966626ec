package models

import "time"

// Document holds the fields every document-bearing resource embeds.
// Reference, SequenceNumber and DateCreation are assigned by the server.
type Document struct {
	ID             uint           `json:"id"`
	Entity         Entity         `json:"entity"`
	Reference      string         `json:"reference"`
	Client         Client         `json:"client"`
	DateCreation   time.Time      `json:"date_creation"`
	Statut         DocumentStatus `json:"statut"`
	DocType        string         `json:"doc_type"`
	SequenceNumber int            `json:"sequence_number"`
}

// DocumentWrite is the id-only shape of Document sent on create and update.
type DocumentWrite struct {
	Entity uint           `json:"entity" validate:"required"`
	Client uint           `json:"client" validate:"required"`
	Statut DocumentStatus `json:"statut,omitempty"`
}

func (d Document) GetID() uint { return d.ID }

// CurrentStatus returns the document lifecycle state.
func (d Document) CurrentStatus() DocumentStatus { return d.Statut }

// IsDraft returns true if the document is still in BROUILLON.
func (d Document) IsDraft() bool { return d.Statut == StatusBrouillon }

func (d Document) toWrite() DocumentWrite {
	return DocumentWrite{Entity: d.Entity.ID, Client: d.Client.ID, Statut: d.Statut}
}

// Offer is the root commercial document.
type Offer struct {
	Document
	Category         *Category  `json:"category,omitempty"`
	Produits         []Product  `json:"produits"`
	Sites            []Site     `json:"sites"`
	DateModification time.Time  `json:"date_modification"`
	DateValidation   *time.Time `json:"date_validation,omitempty"`
}

type OfferWrite struct {
	DocumentWrite
	Category         *uint      `json:"category,omitempty"`
	Produits         []uint     `json:"produits" validate:"min=1"`
	Sites            []uint     `json:"sites" validate:"min=1"`
	DateModification time.Time  `json:"date_modification"`
	DateValidation   *time.Time `json:"date_validation,omitempty"`
}

func (o Offer) ToWrite() OfferWrite {
	w := OfferWrite{
		DocumentWrite:    o.toWrite(),
		Produits:         o.ProductIDs(),
		Sites:            o.SiteIDs(),
		DateModification: o.DateModification,
		DateValidation:   o.DateValidation,
	}
	if o.Category != nil {
		id := o.Category.ID
		w.Category = &id
	}
	return w
}

// WithStatus returns a copy of the offer in state s. Entering VALIDE stamps DateValidation.
func (o Offer) WithStatus(s DocumentStatus, at time.Time) Offer {
	o.Statut = s
	if s == StatusValide {
		t := at
		o.DateValidation = &t
	}
	return o
}

// ProductIDs returns the identifiers of the offer's products in order.
func (o Offer) ProductIDs() []uint {
	ids := make([]uint, 0, len(o.Produits))
	for _, p := range o.Produits {
		ids = append(ids, p.ID)
	}
	return ids
}

// SiteIDs returns the identifiers of the offer's sites in order.
func (o Offer) SiteIDs() []uint {
	ids := make([]uint, 0, len(o.Sites))
	for _, s := range o.Sites {
		ids = append(ids, s.ID)
	}
	return ids
}

// HasProduct reports whether product id is part of the offer.
func (o Offer) HasProduct(id uint) bool {
	for _, p := range o.Produits {
		if p.ID == id {
			return true
		}
	}
	return false
}
