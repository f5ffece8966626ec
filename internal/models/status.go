package models

// DocumentStatus is the lifecycle state shared by every document-bearing resource.
type DocumentStatus string

const (
	StatusBrouillon DocumentStatus = "BROUILLON"
	StatusEnvoye    DocumentStatus = "ENVOYE"
	StatusValide    DocumentStatus = "VALIDE"
	StatusRefuse    DocumentStatus = "REFUSE"
)

// DocumentStatuses lists the document vocabulary in display order.
var DocumentStatuses = []DocumentStatus{StatusBrouillon, StatusEnvoye, StatusValide, StatusRefuse}

// Valid reports whether s belongs to the document vocabulary.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusBrouillon, StatusEnvoye, StatusValide, StatusRefuse:
		return true
	}
	return false
}

// IsTerminal returns true for VALIDE and REFUSE.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusValide || s == StatusRefuse
}

// AffairStatus is the Affair-only vocabulary. It never mixes with DocumentStatus.
type AffairStatus string

const (
	AffaireEnCours  AffairStatus = "EN_COURS"
	AffaireTerminee AffairStatus = "TERMINEE"
	AffaireAnnulee  AffairStatus = "ANNULEE"
)

// AffairStatuses lists the affair vocabulary in display order.
var AffairStatuses = []AffairStatus{AffaireEnCours, AffaireTerminee, AffaireAnnulee}

func (s AffairStatus) Valid() bool {
	switch s {
	case AffaireEnCours, AffaireTerminee, AffaireAnnulee:
		return true
	}
	return false
}

func (s AffairStatus) IsTerminal() bool {
	return s == AffaireTerminee || s == AffaireAnnulee
}

// Document type discriminators used to build references.
const (
	DocTypeOffer       = "OFF"
	DocTypeProforma    = "PRF"
	DocTypeInvoice     = "FAC"
	DocTypeReport      = "RAP"
	DocTypeAffair      = "AFF"
	DocTypeCertificate = "ATT"
)
