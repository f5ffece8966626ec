package db

import (
	"time"

	"github.com/diewo77/backoffice/internal/models"
)

// Records are flat: foreign keys are plain id columns without constraints, so a
// deleted parent leaves its dependents pointing at a missing row.

type EntityRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:3;not null"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EntityRecord) TableName() string { return "entities" }

type ClientRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Nom       string `gorm:"not null"`
	Email     *string
	Telephone *string
	Adresse   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ClientRecord) TableName() string { return "clients" }

type SiteRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Nom          string `gorm:"not null"`
	ClientID     uint   `gorm:"index"`
	Localisation *string
	Description  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SiteRecord) TableName() string { return "sites" }

type CategoryRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:3;not null"`
	Name      string `gorm:"not null"`
	EntityID  uint   `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CategoryRecord) TableName() string { return "categories" }

type ProductRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"not null"`
	Name       string `gorm:"not null"`
	CategoryID uint   `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ProductRecord) TableName() string { return "products" }

// DocumentFields are the columns shared by every document table.
type DocumentFields struct {
	EntityID       uint   `gorm:"index"`
	ClientID       uint   `gorm:"index"`
	Reference      string `gorm:"not null"`
	DateCreation   time.Time
	Statut         string `gorm:"size:16;not null"`
	DocType        string `gorm:"size:3;not null"`
	SequenceNumber int
}

func (d *DocumentFields) apply(w models.DocumentWrite) {
	d.EntityID = w.Entity
	d.ClientID = w.Client
}

type OfferRecord struct {
	ID               uint           `gorm:"primaryKey"`
	Doc              DocumentFields `gorm:"embedded"`
	CategoryID       *uint
	DateModification time.Time
	DateValidation   *time.Time
}

func (OfferRecord) TableName() string { return "offres" }

// OfferProduct and OfferSite keep the offer's ordered sets.
type OfferProduct struct {
	OfferID   uint `gorm:"primaryKey"`
	ProductID uint `gorm:"primaryKey"`
	Position  int
}

func (OfferProduct) TableName() string { return "offre_products" }

type OfferSite struct {
	OfferID  uint `gorm:"primaryKey"`
	SiteID   uint `gorm:"primaryKey"`
	Position int
}

func (OfferSite) TableName() string { return "offre_sites" }

type ProformaRecord struct {
	ID      uint           `gorm:"primaryKey"`
	Doc     DocumentFields `gorm:"embedded"`
	OffreID uint           `gorm:"index"`
}

func (ProformaRecord) TableName() string { return "proformas" }

type InvoiceRecord struct {
	ID         uint           `gorm:"primaryKey"`
	Doc        DocumentFields `gorm:"embedded"`
	ProformaID uint           `gorm:"index"`
}

func (InvoiceRecord) TableName() string { return "factures" }

type ReportRecord struct {
	ID         uint           `gorm:"primaryKey"`
	Doc        DocumentFields `gorm:"embedded"`
	ProformaID uint           `gorm:"index"`
}

func (ReportRecord) TableName() string { return "rapports" }

type AffairRecord struct {
	ID             uint   `gorm:"primaryKey"`
	Reference      string `gorm:"not null"`
	DocType        string `gorm:"size:3;not null"`
	SequenceNumber int
	DateCreation   time.Time
	OffreID        uint `gorm:"index"`
	EntityID       uint `gorm:"index"`
	ClientID       uint `gorm:"index"`
	DateDebut      time.Time
	DateFinPrevue  *time.Time
	Statut         string `gorm:"size:16;not null"`
}

func (AffairRecord) TableName() string { return "affaires" }

type TrainingRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Titre       string `gorm:"not null"`
	ClientID    uint   `gorm:"index"`
	AffaireID   uint   `gorm:"index"`
	ProduitID   uint
	DateDebut   time.Time
	DateFin     time.Time
	Description *string
}

func (TrainingRecord) TableName() string { return "formations" }

type ParticipantRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Nom         string `gorm:"not null"`
	Prenom      string `gorm:"not null"`
	Email       *string
	Telephone   *string
	Fonction    *string
	FormationID uint `gorm:"index"`
}

func (ParticipantRecord) TableName() string { return "participants" }

type CertificateRecord struct {
	ID               uint           `gorm:"primaryKey"`
	Doc              DocumentFields `gorm:"embedded"`
	ProformaID       uint           `gorm:"index"`
	FormationID      uint           `gorm:"index"`
	ParticipantID    uint           `gorm:"index"`
	DetailsFormation string
}

func (CertificateRecord) TableName() string { return "attestation_formations" }

// SequenceRecord is the last sequence number issued per entity, doc type and year.
type SequenceRecord struct {
	EntityID uint   `gorm:"primaryKey;autoIncrement:false"`
	DocType  string `gorm:"primaryKey;size:3"`
	Year     int    `gorm:"primaryKey;autoIncrement:false"`
	Counter  int    `gorm:"not null"`
}

func (SequenceRecord) TableName() string { return "sequences" }

// AllRecords lists every table for AutoMigrate.
func AllRecords() []any {
	return []any{
		&EntityRecord{}, &ClientRecord{}, &SiteRecord{}, &CategoryRecord{}, &ProductRecord{},
		&OfferRecord{}, &OfferProduct{}, &OfferSite{},
		&ProformaRecord{}, &InvoiceRecord{}, &ReportRecord{},
		&AffairRecord{}, &TrainingRecord{}, &ParticipantRecord{}, &CertificateRecord{},
		&SequenceRecord{},
	}
}
