package handlers

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/backoffice/internal/db"
	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

// Register mounts every collection on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, rt := range h.routes() {
		rt.register(mux)
	}
}

func (h *Handler) routes() []route {
	return []route{
		h.entities(), h.clients(), h.sites(), h.categories(), h.products(),
		h.offers(), h.proformas(), h.invoices(), h.reports(),
		h.affairs(), h.trainings(), h.participants(), h.certificates(),
	}
}

func (h *Handler) assembler(ctx context.Context) *db.Assembler {
	return db.NewAssembler(h.db.WithContext(ctx))
}

// checked runs the struct tags of w, then the reference checks.
func (h *Handler) checked(ctx context.Context, w any, refs ...ref) error {
	if err := validation.Check(w).Err(); err != nil {
		return err
	}
	return h.checkRefs(ctx, refs...)
}

func (h *Handler) entities() route {
	return &resource[db.EntityRecord, models.Entity, models.EntityWrite]{
		h: h, name: "entities",
		apply: (*db.EntityRecord).Apply,
		read:  (*db.Assembler).EntityFrom,
		check: func(ctx context.Context, w models.EntityWrite, _ *db.EntityRecord) error {
			return h.checked(ctx, w)
		},
	}
}

func (h *Handler) clients() route {
	return &resource[db.ClientRecord, models.Client, models.ClientWrite]{
		h: h, name: "clients",
		apply: (*db.ClientRecord).Apply,
		read:  (*db.Assembler).ClientFrom,
		check: func(ctx context.Context, w models.ClientWrite, _ *db.ClientRecord) error {
			return h.checked(ctx, w)
		},
	}
}

func (h *Handler) sites() route {
	return &resource[db.SiteRecord, models.Site, models.SiteWrite]{
		h: h, name: "sites",
		filters: map[string]filter{"client": column("client_id")},
		apply:   (*db.SiteRecord).Apply,
		read:    (*db.Assembler).SiteFrom,
		check: func(ctx context.Context, w models.SiteWrite, _ *db.SiteRecord) error {
			return h.checked(ctx, w, ref{"client", &db.ClientRecord{}, w.Client})
		},
	}
}

func (h *Handler) categories() route {
	return &resource[db.CategoryRecord, models.Category, models.CategoryWrite]{
		h: h, name: "categories",
		filters: map[string]filter{"entity": column("entity_id")},
		apply:   (*db.CategoryRecord).Apply,
		read:    (*db.Assembler).CategoryFrom,
		check: func(ctx context.Context, w models.CategoryWrite, _ *db.CategoryRecord) error {
			return h.checked(ctx, w, ref{"entity", &db.EntityRecord{}, w.Entity})
		},
	}
}

func (h *Handler) products() route {
	return &resource[db.ProductRecord, models.Product, models.ProductWrite]{
		h: h, name: "products",
		filters: map[string]filter{"category": column("category_id")},
		apply:   (*db.ProductRecord).Apply,
		read:    (*db.Assembler).ProductFrom,
		check: func(ctx context.Context, w models.ProductWrite, _ *db.ProductRecord) error {
			return h.checked(ctx, w, ref{"category", &db.CategoryRecord{}, w.Category})
		},
	}
}

func (h *Handler) offers() route {
	return &resource[db.OfferRecord, models.Offer, models.OfferWrite]{
		h: h, name: "offres", status: documentStatus,
		filters: map[string]filter{"client": column("client_id"), "entity": column("entity_id")},
		apply:   (*db.OfferRecord).Apply,
		read:    (*db.Assembler).OfferFrom,
		check: func(ctx context.Context, w models.OfferWrite, _ *db.OfferRecord) error {
			if err := derivation.CheckOffer(w); err != nil {
				return err
			}
			refs := []ref{
				{"entity", &db.EntityRecord{}, w.Entity},
				{"client", &db.ClientRecord{}, w.Client},
			}
			if w.Category != nil {
				refs = append(refs, ref{"category", &db.CategoryRecord{}, *w.Category})
			}
			for _, id := range w.Produits {
				refs = append(refs, ref{"produits", &db.ProductRecord{}, id})
			}
			for _, id := range w.Sites {
				refs = append(refs, ref{"sites", &db.SiteRecord{}, id})
			}
			return h.checkRefs(ctx, refs...)
		},
		prepare: func(ctx context.Context, rec *db.OfferRecord) error {
			if err := h.stamp(ctx, &rec.Doc, models.DocTypeOffer); err != nil {
				return err
			}
			rec.DateModification = rec.Doc.DateCreation
			return nil
		},
		touch: func(rec *db.OfferRecord) { rec.DateModification = h.engine.Now() },
		saved: func(tx *gorm.DB, rec *db.OfferRecord, w models.OfferWrite) error {
			return replaceOfferSets(tx, rec.ID, w.Produits, w.Sites)
		},
		deleted: func(tx *gorm.DB, id uint) error {
			return replaceOfferSets(tx, id, nil, nil)
		},
		leaving: func(ctx context.Context, rec *db.OfferRecord, next models.DocumentStatus) error {
			asm := h.assembler(ctx)
			offer := asm.OfferFrom(rec)
			if err := asm.Err(); err != nil {
				return err
			}
			return derivation.CheckOfferLeavesDraft(offer, next)
		},
	}
}

// replaceOfferSets rewrites the ordered product and site rows of an offer.
func replaceOfferSets(tx *gorm.DB, offerID uint, products, sites []uint) error {
	if err := tx.Where("offer_id = ?", offerID).Delete(&db.OfferProduct{}).Error; err != nil {
		return err
	}
	if err := tx.Where("offer_id = ?", offerID).Delete(&db.OfferSite{}).Error; err != nil {
		return err
	}
	seen := make(map[uint]bool, len(products))
	var prows []db.OfferProduct
	for _, id := range products {
		if seen[id] {
			continue
		}
		seen[id] = true
		prows = append(prows, db.OfferProduct{OfferID: offerID, ProductID: id, Position: len(prows)})
	}
	clear(seen)
	var srows []db.OfferSite
	for _, id := range sites {
		if seen[id] {
			continue
		}
		seen[id] = true
		srows = append(srows, db.OfferSite{OfferID: offerID, SiteID: id, Position: len(srows)})
	}
	if len(prows) > 0 {
		if err := tx.Create(&prows).Error; err != nil {
			return err
		}
	}
	if len(srows) > 0 {
		return tx.Create(&srows).Error
	}
	return nil
}

func (h *Handler) proformas() route {
	return &resource[db.ProformaRecord, models.Proforma, models.ProformaWrite]{
		h: h, name: "proformas", status: documentStatus,
		filters: map[string]filter{"offre": column("offre_id"), "client": column("client_id")},
		apply:   (*db.ProformaRecord).Apply,
		read:    (*db.Assembler).ProformaFrom,
		check: func(ctx context.Context, w models.ProformaWrite, _ *db.ProformaRecord) error {
			if err := h.checked(ctx, w,
				ref{"entity", &db.EntityRecord{}, w.Entity},
				ref{"client", &db.ClientRecord{}, w.Client},
				ref{"offre", &db.OfferRecord{}, w.Offre},
			); err != nil {
				return err
			}
			asm := h.assembler(ctx)
			offer := asm.Offer(w.Offre)
			if err := asm.Err(); err != nil {
				return err
			}
			return derivation.CheckProforma(w, offer)
		},
		prepare: func(ctx context.Context, rec *db.ProformaRecord) error {
			return h.stamp(ctx, &rec.Doc, models.DocTypeProforma)
		},
	}
}

// checkProformaChild validates an invoice or report payload.
func (h *Handler) checkProformaChild(ctx context.Context, w any, doc models.DocumentWrite, proformaID uint) error {
	if err := h.checked(ctx, w,
		ref{"entity", &db.EntityRecord{}, doc.Entity},
		ref{"client", &db.ClientRecord{}, doc.Client},
		ref{"proforma", &db.ProformaRecord{}, proformaID},
	); err != nil {
		return err
	}
	asm := h.assembler(ctx)
	p := asm.Proforma(proformaID)
	if err := asm.Err(); err != nil {
		return err
	}
	return derivation.CheckProformaChild(doc, proformaID, p)
}

func (h *Handler) invoices() route {
	return &resource[db.InvoiceRecord, models.Invoice, models.InvoiceWrite]{
		h: h, name: "factures", status: documentStatus,
		filters: map[string]filter{"proforma": column("proforma_id"), "client": column("client_id")},
		apply:   (*db.InvoiceRecord).Apply,
		read:    (*db.Assembler).InvoiceFrom,
		check: func(ctx context.Context, w models.InvoiceWrite, _ *db.InvoiceRecord) error {
			return h.checkProformaChild(ctx, w, w.DocumentWrite, w.Proforma)
		},
		prepare: func(ctx context.Context, rec *db.InvoiceRecord) error {
			return h.stamp(ctx, &rec.Doc, models.DocTypeInvoice)
		},
	}
}

func (h *Handler) reports() route {
	return &resource[db.ReportRecord, models.Report, models.ReportWrite]{
		h: h, name: "rapports", status: documentStatus,
		filters: map[string]filter{"proforma": column("proforma_id"), "client": column("client_id")},
		apply:   (*db.ReportRecord).Apply,
		read:    (*db.Assembler).ReportFrom,
		check: func(ctx context.Context, w models.ReportWrite, _ *db.ReportRecord) error {
			return h.checkProformaChild(ctx, w, w.DocumentWrite, w.Proforma)
		},
		prepare: func(ctx context.Context, rec *db.ReportRecord) error {
			return h.stamp(ctx, &rec.Doc, models.DocTypeReport)
		},
	}
}

func (h *Handler) affairs() route {
	return &resource[db.AffairRecord, models.Affair, models.AffairWrite]{
		h: h, name: "affaires", status: affairStatus,
		filters: map[string]filter{"offre": column("offre_id"), "client": column("client_id")},
		apply:   (*db.AffairRecord).Apply,
		read:    (*db.Assembler).AffairFrom,
		check: func(ctx context.Context, w models.AffairWrite, _ *db.AffairRecord) error {
			if err := h.checked(ctx, w,
				ref{"offre", &db.OfferRecord{}, w.Offre},
				ref{"entity", &db.EntityRecord{}, w.Entity},
				ref{"client", &db.ClientRecord{}, w.Client},
			); err != nil {
				return err
			}
			asm := h.assembler(ctx)
			offer := asm.Offer(w.Offre)
			if err := asm.Err(); err != nil {
				return err
			}
			return derivation.CheckAffair(w, offer)
		},
		prepare: func(ctx context.Context, rec *db.AffairRecord) error {
			now := h.engine.Now()
			reference, seq, err := h.nextReference(ctx, rec.EntityID, models.DocTypeAffair, now)
			if err != nil {
				return err
			}
			rec.Reference, rec.SequenceNumber = reference, seq
			rec.DocType = models.DocTypeAffair
			rec.DateCreation = now
			rec.Statut = string(models.AffaireEnCours)
			return nil
		},
	}
}

func (h *Handler) trainings() route {
	return &resource[db.TrainingRecord, models.Training, models.TrainingWrite]{
		h: h, name: "formations",
		filters: map[string]filter{"affaire": column("affaire_id"), "client": column("client_id")},
		apply:   (*db.TrainingRecord).Apply,
		read:    (*db.Assembler).TrainingFrom,
		check: func(ctx context.Context, w models.TrainingWrite, _ *db.TrainingRecord) error {
			if err := h.checked(ctx, w,
				ref{"affaire", &db.AffairRecord{}, w.Affaire},
				ref{"client", &db.ClientRecord{}, w.Client},
				ref{"produit", &db.ProductRecord{}, w.Produit},
			); err != nil {
				return err
			}
			asm := h.assembler(ctx)
			affair := asm.Affair(w.Affaire)
			if err := asm.Err(); err != nil {
				return err
			}
			return derivation.CheckTraining(w, affair, h.code)
		},
	}
}

func (h *Handler) participants() route {
	return &resource[db.ParticipantRecord, models.Participant, models.ParticipantWrite]{
		h: h, name: "participants",
		filters: map[string]filter{
			"formation": column("formation_id"),
			"client": func(tx *gorm.DB, id uint) *gorm.DB {
				sub := tx.Session(&gorm.Session{NewDB: true}).Model(&db.TrainingRecord{}).Select("id").Where("client_id = ?", id)
				return tx.Where("formation_id IN (?)", sub)
			},
		},
		apply: (*db.ParticipantRecord).Apply,
		read:  (*db.Assembler).ParticipantFrom,
		check: func(ctx context.Context, w models.ParticipantWrite, _ *db.ParticipantRecord) error {
			if err := h.checked(ctx, w, ref{"formation", &db.TrainingRecord{}, w.Formation}); err != nil {
				return err
			}
			asm := h.assembler(ctx)
			training := asm.Training(w.Formation)
			if err := asm.Err(); err != nil {
				return err
			}
			return derivation.CheckParticipant(w, training)
		},
	}
}

func (h *Handler) certificates() route {
	return &resource[db.CertificateRecord, models.Certificate, models.CertificateWrite]{
		h: h, name: "attestation-formations", status: documentStatus,
		filters: map[string]filter{
			"participant": column("participant_id"),
			"formation":   column("formation_id"),
			"proforma":    column("proforma_id"),
		},
		apply: (*db.CertificateRecord).Apply,
		read:  (*db.Assembler).CertificateFrom,
		check: func(ctx context.Context, w models.CertificateWrite, _ *db.CertificateRecord) error {
			if err := h.checked(ctx, w,
				ref{"entity", &db.EntityRecord{}, w.Entity},
				ref{"client", &db.ClientRecord{}, w.Client},
				ref{"proforma", &db.ProformaRecord{}, w.Proforma},
				ref{"formation", &db.TrainingRecord{}, w.Formation},
				ref{"participant", &db.ParticipantRecord{}, w.Participant},
			); err != nil {
				return err
			}
			asm := h.assembler(ctx)
			p, t, part := asm.Proforma(w.Proforma), asm.Training(w.Formation), asm.Participant(w.Participant)
			if err := asm.Err(); err != nil {
				return err
			}
			return derivation.CheckCertificate(w, p, t, part)
		},
		prepare: func(ctx context.Context, rec *db.CertificateRecord) error {
			return h.stamp(ctx, &rec.Doc, models.DocTypeCertificate)
		},
	}
}
