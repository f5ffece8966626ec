package derivation

import (
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

// CheckLineage verifies that training and proforma come from the same offer and that
// participant belongs to training.
func CheckLineage(proforma models.Proforma, training models.Training, participant models.Participant) error {
	if training.Affaire.Offre.ID != proforma.Offre.ID {
		return &LineageMismatchError{Field: "formation.affaire.offre", Want: proforma.Offre.ID, Got: training.Affaire.Offre.ID}
	}
	if participant.Formation.ID != training.ID {
		return &LineageMismatchError{Field: "participant.formation", Want: training.ID, Got: participant.Formation.ID}
	}
	return nil
}

// CertificateFrom builds the creation payload of a certificate. Entity and client come
// from the proforma.
func CertificateFrom(proforma *models.Proforma, training *models.Training, participant *models.Participant, details string) (models.CertificateWrite, error) {
	switch {
	case proforma == nil || proforma.ID == 0:
		return models.CertificateWrite{}, &MissingSourceError{Source: "proforma"}
	case training == nil || training.ID == 0:
		return models.CertificateWrite{}, &MissingSourceError{Source: "formation"}
	case participant == nil || participant.ID == 0:
		return models.CertificateWrite{}, &MissingSourceError{Source: "participant"}
	}
	if err := CheckLineage(*proforma, *training, *participant); err != nil {
		return models.CertificateWrite{}, err
	}
	return models.CertificateWrite{
		DocumentWrite:    draftOf(proforma.Document),
		Proforma:         proforma.ID,
		Formation:        training.ID,
		Participant:      participant.ID,
		DetailsFormation: details,
	}, nil
}

// CheckCertificate validates a certificate payload against its three references.
func CheckCertificate(w models.CertificateWrite, proforma models.Proforma, training models.Training, participant models.Participant) error {
	if err := validation.Check(w).Err(); err != nil {
		return err
	}
	if w.Proforma != proforma.ID || w.Formation != training.ID || w.Participant != participant.ID {
		return &LineageMismatchError{Field: "references", Want: proforma.ID, Got: w.Proforma}
	}
	if err := CheckLineage(proforma, training, participant); err != nil {
		return err
	}
	return CheckDerivedIdentity(proforma.Entity.ID, proforma.Client.ID, w.Entity, w.Client)
}
