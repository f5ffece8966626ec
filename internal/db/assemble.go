package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/backoffice/internal/models"
)

// Assembler builds read shapes from flat records, embedding parents recursively.
// A parent id that no longer resolves is emitted as an id-only stub, so clients
// can surface the orphan instead of losing the reference. One Assembler serves
// one request; lookups are memoized.
type Assembler struct {
	db  *gorm.DB
	err error

	entities     map[uint]models.Entity
	clients      map[uint]models.Client
	sites        map[uint]models.Site
	categories   map[uint]models.Category
	products     map[uint]models.Product
	offers       map[uint]models.Offer
	proformas    map[uint]models.Proforma
	affairs      map[uint]models.Affair
	trainings    map[uint]models.Training
	participants map[uint]models.Participant
}

func NewAssembler(db *gorm.DB) *Assembler {
	return &Assembler{
		db:           db,
		entities:     map[uint]models.Entity{},
		clients:      map[uint]models.Client{},
		sites:        map[uint]models.Site{},
		categories:   map[uint]models.Category{},
		products:     map[uint]models.Product{},
		offers:       map[uint]models.Offer{},
		proformas:    map[uint]models.Proforma{},
		affairs:      map[uint]models.Affair{},
		trainings:    map[uint]models.Training{},
		participants: map[uint]models.Participant{},
	}
}

// Err returns the first database error met while assembling. Missing rows are not errors.
func (a *Assembler) Err() error { return a.err }

// find loads the record with id into dst. It returns false when the row is missing
// or a database error occurred.
func (a *Assembler) find(dst any, id uint) bool {
	if id == 0 {
		return false
	}
	err := a.db.First(dst, id).Error
	if err == nil {
		return true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) && a.err == nil {
		a.err = err
	}
	return false
}

func memo[T any](cache map[uint]T, id uint, build func() T) T {
	if v, ok := cache[id]; ok {
		return v
	}
	v := build()
	cache[id] = v
	return v
}

func (a *Assembler) Entity(id uint) models.Entity {
	return memo(a.entities, id, func() models.Entity {
		var r EntityRecord
		if !a.find(&r, id) {
			return models.Entity{ID: id}
		}
		return a.EntityFrom(&r)
	})
}

func (a *Assembler) EntityFrom(r *EntityRecord) models.Entity {
	return models.Entity{ID: r.ID, Code: r.Code, Name: r.Name}
}

func (a *Assembler) Client(id uint) models.Client {
	return memo(a.clients, id, func() models.Client {
		var r ClientRecord
		if !a.find(&r, id) {
			return models.Client{ID: id}
		}
		return a.ClientFrom(&r)
	})
}

func (a *Assembler) ClientFrom(r *ClientRecord) models.Client {
	return models.Client{ID: r.ID, Nom: r.Nom, Email: r.Email, Telephone: r.Telephone, Adresse: r.Adresse}
}

func (a *Assembler) Site(id uint) models.Site {
	return memo(a.sites, id, func() models.Site {
		var r SiteRecord
		if !a.find(&r, id) {
			return models.Site{ID: id}
		}
		return a.SiteFrom(&r)
	})
}

func (a *Assembler) SiteFrom(r *SiteRecord) models.Site {
	return models.Site{
		ID: r.ID, Nom: r.Nom, Client: a.Client(r.ClientID),
		Localisation: r.Localisation, Description: r.Description,
	}
}

func (a *Assembler) Category(id uint) models.Category {
	return memo(a.categories, id, func() models.Category {
		var r CategoryRecord
		if !a.find(&r, id) {
			return models.Category{ID: id}
		}
		return a.CategoryFrom(&r)
	})
}

func (a *Assembler) CategoryFrom(r *CategoryRecord) models.Category {
	return models.Category{ID: r.ID, Code: r.Code, Name: r.Name, Entity: a.Entity(r.EntityID)}
}

func (a *Assembler) Product(id uint) models.Product {
	return memo(a.products, id, func() models.Product {
		var r ProductRecord
		if !a.find(&r, id) {
			return models.Product{ID: id}
		}
		return a.ProductFrom(&r)
	})
}

func (a *Assembler) ProductFrom(r *ProductRecord) models.Product {
	return models.Product{ID: r.ID, Code: r.Code, Name: r.Name, Category: a.Category(r.CategoryID)}
}

func (a *Assembler) document(id uint, d DocumentFields) models.Document {
	return models.Document{
		ID:             id,
		Entity:         a.Entity(d.EntityID),
		Reference:      d.Reference,
		Client:         a.Client(d.ClientID),
		DateCreation:   d.DateCreation,
		Statut:         models.DocumentStatus(d.Statut),
		DocType:        d.DocType,
		SequenceNumber: d.SequenceNumber,
	}
}

func (a *Assembler) Offer(id uint) models.Offer {
	return memo(a.offers, id, func() models.Offer {
		var r OfferRecord
		if !a.find(&r, id) {
			return models.Offer{Document: models.Document{ID: id}}
		}
		return a.OfferFrom(&r)
	})
}

func (a *Assembler) OfferFrom(r *OfferRecord) models.Offer {
	o := models.Offer{
		Document:         a.document(r.ID, r.Doc),
		DateModification: r.DateModification,
		DateValidation:   r.DateValidation,
		Produits:         []models.Product{},
		Sites:            []models.Site{},
	}
	if r.CategoryID != nil {
		c := a.Category(*r.CategoryID)
		o.Category = &c
	}
	var prods []OfferProduct
	if err := a.db.Where("offer_id = ?", r.ID).Order("position").Find(&prods).Error; err != nil && a.err == nil {
		a.err = err
	}
	for _, p := range prods {
		o.Produits = append(o.Produits, a.Product(p.ProductID))
	}
	var sites []OfferSite
	if err := a.db.Where("offer_id = ?", r.ID).Order("position").Find(&sites).Error; err != nil && a.err == nil {
		a.err = err
	}
	for _, s := range sites {
		o.Sites = append(o.Sites, a.Site(s.SiteID))
	}
	return o
}

func (a *Assembler) Proforma(id uint) models.Proforma {
	return memo(a.proformas, id, func() models.Proforma {
		var r ProformaRecord
		if !a.find(&r, id) {
			return models.Proforma{Document: models.Document{ID: id}}
		}
		return a.ProformaFrom(&r)
	})
}

func (a *Assembler) ProformaFrom(r *ProformaRecord) models.Proforma {
	return models.Proforma{Document: a.document(r.ID, r.Doc), Offre: a.Offer(r.OffreID)}
}

func (a *Assembler) InvoiceFrom(r *InvoiceRecord) models.Invoice {
	return models.Invoice{Document: a.document(r.ID, r.Doc), Proforma: a.Proforma(r.ProformaID)}
}

func (a *Assembler) ReportFrom(r *ReportRecord) models.Report {
	return models.Report{Document: a.document(r.ID, r.Doc), Proforma: a.Proforma(r.ProformaID)}
}

func (a *Assembler) Affair(id uint) models.Affair {
	return memo(a.affairs, id, func() models.Affair {
		var r AffairRecord
		if !a.find(&r, id) {
			return models.Affair{ID: id}
		}
		return a.AffairFrom(&r)
	})
}

func (a *Assembler) AffairFrom(r *AffairRecord) models.Affair {
	return models.Affair{
		ID:             r.ID,
		Reference:      r.Reference,
		DocType:        r.DocType,
		SequenceNumber: r.SequenceNumber,
		DateCreation:   r.DateCreation,
		Offre:          a.Offer(r.OffreID),
		Entity:         a.Entity(r.EntityID),
		Client:         a.Client(r.ClientID),
		DateDebut:      r.DateDebut,
		DateFinPrevue:  r.DateFinPrevue,
		Statut:         models.AffairStatus(r.Statut),
	}
}

func (a *Assembler) Training(id uint) models.Training {
	return memo(a.trainings, id, func() models.Training {
		var r TrainingRecord
		if !a.find(&r, id) {
			return models.Training{ID: id}
		}
		return a.TrainingFrom(&r)
	})
}

func (a *Assembler) TrainingFrom(r *TrainingRecord) models.Training {
	return models.Training{
		ID:          r.ID,
		Titre:       r.Titre,
		Client:      a.Client(r.ClientID),
		Affaire:     a.Affair(r.AffaireID),
		Produit:     a.Product(r.ProduitID),
		DateDebut:   r.DateDebut,
		DateFin:     r.DateFin,
		Description: r.Description,
	}
}

func (a *Assembler) Participant(id uint) models.Participant {
	return memo(a.participants, id, func() models.Participant {
		var r ParticipantRecord
		if !a.find(&r, id) {
			return models.Participant{ID: id}
		}
		return a.ParticipantFrom(&r)
	})
}

func (a *Assembler) ParticipantFrom(r *ParticipantRecord) models.Participant {
	return models.Participant{
		ID: r.ID, Nom: r.Nom, Prenom: r.Prenom,
		Email: r.Email, Telephone: r.Telephone, Fonction: r.Fonction,
		Formation: a.Training(r.FormationID),
	}
}

func (a *Assembler) CertificateFrom(r *CertificateRecord) models.Certificate {
	return models.Certificate{
		Document:         a.document(r.ID, r.Doc),
		Proforma:         a.Proforma(r.ProformaID),
		Formation:        a.Training(r.FormationID),
		Participant:      a.Participant(r.ParticipantID),
		DetailsFormation: r.DetailsFormation,
	}
}

// Exists reports whether a row with id exists in model's table.
func Exists(db *gorm.DB, model any, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
