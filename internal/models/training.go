package models

import "time"

// Training (formation) is a scheduled session derived from an Affair.
type Training struct {
	ID          uint      `json:"id"`
	Titre       string    `json:"titre"`
	Client      Client    `json:"client"`
	Affaire     Affair    `json:"affaire"`
	Produit     Product   `json:"produit"`
	DateDebut   time.Time `json:"date_debut"`
	DateFin     time.Time `json:"date_fin"`
	Description *string   `json:"description,omitempty"`
}

type TrainingWrite struct {
	Titre       string    `json:"titre" validate:"required"`
	Client      uint      `json:"client" validate:"required"`
	Affaire     uint      `json:"affaire" validate:"required"`
	Produit     uint      `json:"produit" validate:"required"`
	DateDebut   time.Time `json:"date_debut" validate:"required"`
	DateFin     time.Time `json:"date_fin" validate:"required"`
	Description *string   `json:"description,omitempty"`
}

func (t Training) GetID() uint { return t.ID }

func (t Training) ToWrite() TrainingWrite {
	return TrainingWrite{
		Titre:       t.Titre,
		Client:      t.Client.ID,
		Affaire:     t.Affaire.ID,
		Produit:     t.Produit.ID,
		DateDebut:   t.DateDebut,
		DateFin:     t.DateFin,
		Description: t.Description,
	}
}

// Participant belongs to exactly one Training.
type Participant struct {
	ID        uint     `json:"id"`
	Nom       string   `json:"nom"`
	Prenom    string   `json:"prenom"`
	Email     *string  `json:"email,omitempty"`
	Telephone *string  `json:"telephone,omitempty"`
	Fonction  *string  `json:"fonction,omitempty"`
	Formation Training `json:"formation"`
}

type ParticipantWrite struct {
	Nom       string  `json:"nom" validate:"required"`
	Prenom    string  `json:"prenom" validate:"required"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Telephone *string `json:"telephone,omitempty"`
	Fonction  *string `json:"fonction,omitempty"`
	Formation uint    `json:"formation" validate:"required"`
}

func (p Participant) GetID() uint { return p.ID }

func (p Participant) ToWrite() ParticipantWrite {
	return ParticipantWrite{
		Nom:       p.Nom,
		Prenom:    p.Prenom,
		Email:     p.Email,
		Telephone: p.Telephone,
		Fonction:  p.Fonction,
		Formation: p.Formation.ID,
	}
}

// Certificate (attestation de formation) ties a Proforma, a Training and a Participant.
type Certificate struct {
	Document
	Proforma         Proforma    `json:"proforma"`
	Formation        Training    `json:"formation"`
	Participant      Participant `json:"participant"`
	DetailsFormation string      `json:"details_formation"`
}

type CertificateWrite struct {
	DocumentWrite
	Proforma         uint   `json:"proforma" validate:"required"`
	Formation        uint   `json:"formation" validate:"required"`
	Participant      uint   `json:"participant" validate:"required"`
	DetailsFormation string `json:"details_formation"`
}

func (c Certificate) ToWrite() CertificateWrite {
	return CertificateWrite{
		DocumentWrite:    c.toWrite(),
		Proforma:         c.Proforma.ID,
		Formation:        c.Formation.ID,
		Participant:      c.Participant.ID,
		DetailsFormation: c.DetailsFormation,
	}
}

func (c Certificate) WithStatus(s DocumentStatus, _ time.Time) Certificate {
	c.Statut = s
	return c
}
