package derivation

import (
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

// CheckOffer validates an offer payload. Every missing field is reported at once.
func CheckOffer(w models.OfferWrite) error {
	v := validation.Check(w)
	validation.RequiredID("entity", w.Entity, v)
	validation.RequiredID("client", w.Client, v)
	validation.NonEmptyIDs("produits", w.Produits, v)
	validation.NonEmptyIDs("sites", w.Sites, v)
	return v.Err()
}

// CheckOfferLeavesDraft enforces the completeness invariant before an offer leaves BROUILLON.
func CheckOfferLeavesDraft(offer models.Offer, next models.DocumentStatus) error {
	if !offer.IsDraft() || next == models.StatusBrouillon {
		return nil
	}
	v := make(validation.Violations)
	validation.RequiredID("entity", offer.Entity.ID, v)
	validation.RequiredID("client", offer.Client.ID, v)
	validation.NonEmptyIDs("produits", offer.ProductIDs(), v)
	validation.NonEmptyIDs("sites", offer.SiteIDs(), v)
	return v.Err()
}

// SelectableProducts restricts products to the chosen category. A zero category keeps them all.
func SelectableProducts(products []models.Product, categoryID uint) []models.Product {
	if categoryID == 0 {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category.ID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

// CheckDerivedIdentity ensures a derived document keeps its source's entity and client.
func CheckDerivedIdentity(sourceEntity, sourceClient, entity, client uint) error {
	if entity != sourceEntity {
		return &EntityMismatchError{Field: "entity", Source: sourceEntity, Got: entity}
	}
	if client != sourceClient {
		return &EntityMismatchError{Field: "client", Source: sourceClient, Got: client}
	}
	return nil
}
