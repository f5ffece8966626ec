package models

import "time"

// Affair is an operational engagement derived from one Offer.
// Entity and Client are copied from the offer when the affair is created.
type Affair struct {
	ID             uint         `json:"id"`
	Reference      string       `json:"reference"`
	DocType        string       `json:"doc_type"`
	SequenceNumber int          `json:"sequence_number"`
	DateCreation   time.Time    `json:"date_creation"`
	Offre          Offer        `json:"offre"`
	Entity         Entity       `json:"entity"`
	Client         Client       `json:"client"`
	DateDebut      time.Time    `json:"date_debut"`
	DateFinPrevue  *time.Time   `json:"date_fin_prevue,omitempty"`
	Statut         AffairStatus `json:"statut"`
}

type AffairWrite struct {
	Offre         uint         `json:"offre" validate:"required"`
	Entity        uint         `json:"entity" validate:"required"`
	Client        uint         `json:"client" validate:"required"`
	DateDebut     time.Time    `json:"date_debut" validate:"required"`
	DateFinPrevue *time.Time   `json:"date_fin_prevue,omitempty"`
	Statut        AffairStatus `json:"statut" validate:"required"`
}

func (a Affair) GetID() uint { return a.ID }

func (a Affair) ToWrite() AffairWrite {
	return AffairWrite{
		Offre:         a.Offre.ID,
		Entity:        a.Entity.ID,
		Client:        a.Client.ID,
		DateDebut:     a.DateDebut,
		DateFinPrevue: a.DateFinPrevue,
		Statut:        a.Statut,
	}
}
