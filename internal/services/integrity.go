package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/diewo77/backoffice/internal/api"
	"github.com/diewo77/backoffice/internal/logging"
	"github.com/diewo77/backoffice/internal/models"
)

// OrphanedReferenceError reports a cached item whose parent identifier no longer
// resolves in the parent's store. Deletes never cascade, so these are expected
// after a parent is removed.
type OrphanedReferenceError struct {
	Resource        string
	ID              uint
	Field           string
	MissingResource string
	MissingID       uint
}

func (e *OrphanedReferenceError) Error() string {
	return fmt.Sprintf("%s %d: %s references missing %s %d",
		e.Resource, e.ID, e.Field, e.MissingResource, e.MissingID)
}

// IntegrityService joins every store against its parents.
type IntegrityService struct {
	st     *Stores
	logger *zap.Logger
}

func NewIntegrityService(st *Stores, logger *zap.Logger) *IntegrityService {
	return &IntegrityService{st: st, logger: logging.OrNop(logger)}
}

type scan struct {
	out []*OrphanedReferenceError
}

// ref records an orphan when id is set and not found. Zero ids are optional references.
func (sc *scan) ref(resource string, id uint, field, parent string, parentID uint, exists func(uint) bool) {
	if parentID == 0 || exists(parentID) {
		return
	}
	sc.out = append(sc.out, &OrphanedReferenceError{
		Resource: resource, ID: id, Field: field, MissingResource: parent, MissingID: parentID,
	})
}

func has[R any](lookup func(uint) (R, bool)) func(uint) bool {
	return func(id uint) bool {
		_, ok := lookup(id)
		return ok
	}
}

// Scan returns every orphaned reference in the cached collections and logs each at Warn.
func (s *IntegrityService) Scan() []*OrphanedReferenceError {
	out := s.collect()
	for _, o := range out {
		s.logger.Warn("orphaned reference",
			zap.String("resource", o.Resource), zap.Uint("id", o.ID),
			zap.String("field", o.Field), zap.String("missing_resource", o.MissingResource),
			zap.Uint("missing_id", o.MissingID))
	}
	return out
}

func (s *IntegrityService) collect() []*OrphanedReferenceError {
	st := s.st
	var (
		entity      = has(st.Entities.Lookup)
		client      = has(st.Clients.Lookup)
		site        = has(st.Sites.Lookup)
		category    = has(st.Categories.Lookup)
		product     = has(st.Products.Lookup)
		offer       = has(st.Offers.Lookup)
		proforma    = has(st.Proformas.Lookup)
		affair      = has(st.Affairs.Lookup)
		training    = has(st.Trainings.Lookup)
		participant = has(st.Participants.Lookup)
	)
	sc := &scan{}
	doc := func(res string, d models.Document) {
		sc.ref(res, d.ID, "entity", api.Entities, d.Entity.ID, entity)
		sc.ref(res, d.ID, "client", api.Clients, d.Client.ID, client)
	}

	for _, x := range st.Sites.Items() {
		sc.ref(api.Sites, x.ID, "client", api.Clients, x.Client.ID, client)
	}
	for _, x := range st.Categories.Items() {
		sc.ref(api.Categories, x.ID, "entity", api.Entities, x.Entity.ID, entity)
	}
	for _, x := range st.Products.Items() {
		sc.ref(api.Products, x.ID, "category", api.Categories, x.Category.ID, category)
	}
	for _, x := range st.Offers.Items() {
		doc(api.Offers, x.Document)
		if x.Category != nil {
			sc.ref(api.Offers, x.ID, "category", api.Categories, x.Category.ID, category)
		}
		for _, p := range x.Produits {
			sc.ref(api.Offers, x.ID, "produits", api.Products, p.ID, product)
		}
		for _, si := range x.Sites {
			sc.ref(api.Offers, x.ID, "sites", api.Sites, si.ID, site)
		}
	}
	for _, x := range st.Proformas.Items() {
		doc(api.Proformas, x.Document)
		sc.ref(api.Proformas, x.ID, "offre", api.Offers, x.Offre.ID, offer)
	}
	for _, x := range st.Invoices.Items() {
		doc(api.Invoices, x.Document)
		sc.ref(api.Invoices, x.ID, "proforma", api.Proformas, x.Proforma.ID, proforma)
	}
	for _, x := range st.Reports.Items() {
		doc(api.Reports, x.Document)
		sc.ref(api.Reports, x.ID, "proforma", api.Proformas, x.Proforma.ID, proforma)
	}
	for _, x := range st.Affairs.Items() {
		sc.ref(api.Affairs, x.ID, "offre", api.Offers, x.Offre.ID, offer)
		sc.ref(api.Affairs, x.ID, "entity", api.Entities, x.Entity.ID, entity)
		sc.ref(api.Affairs, x.ID, "client", api.Clients, x.Client.ID, client)
	}
	for _, x := range st.Trainings.Items() {
		sc.ref(api.Trainings, x.ID, "affaire", api.Affairs, x.Affaire.ID, affair)
		sc.ref(api.Trainings, x.ID, "produit", api.Products, x.Produit.ID, product)
		sc.ref(api.Trainings, x.ID, "client", api.Clients, x.Client.ID, client)
	}
	for _, x := range st.Participants.Items() {
		sc.ref(api.Participants, x.ID, "formation", api.Trainings, x.Formation.ID, training)
	}
	for _, x := range st.Certificates.Items() {
		doc(api.Certificates, x.Document)
		sc.ref(api.Certificates, x.ID, "proforma", api.Proformas, x.Proforma.ID, proforma)
		sc.ref(api.Certificates, x.ID, "formation", api.Trainings, x.Formation.ID, training)
		sc.ref(api.Certificates, x.ID, "participant", api.Participants, x.Participant.ID, participant)
	}
	return sc.out
}

// OrphansOf returns the orphaned references of one cached item.
func (s *IntegrityService) OrphansOf(resource string, id uint) []*OrphanedReferenceError {
	var out []*OrphanedReferenceError
	for _, o := range s.collect() {
		if o.Resource == resource && o.ID == id {
			out = append(out, o)
		}
	}
	return out
}
