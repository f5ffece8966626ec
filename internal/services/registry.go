package services

import (
	"context"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/store"
	"github.com/diewo77/backoffice/validation"
)

// RegistryService manages the flat reference catalogs. Every payload is validated
// before any network call.
type RegistryService struct {
	st *Stores
}

func NewRegistryService(st *Stores) *RegistryService {
	return &RegistryService{st: st}
}

func createChecked[R store.Identifiable, W any](ctx context.Context, s *store.Store[R, W], w W) (R, error) {
	if err := validation.Check(w).Err(); err != nil {
		var zero R
		return zero, err
	}
	return s.Create(ctx, w)
}

func updateChecked[R store.Identifiable, W any](ctx context.Context, s *store.Store[R, W], id uint, w W) (R, error) {
	if err := validation.Check(w).Err(); err != nil {
		var zero R
		return zero, err
	}
	return s.Update(ctx, id, w)
}

func (r *RegistryService) CreateEntity(ctx context.Context, w models.EntityWrite) (models.Entity, error) {
	return createChecked(ctx, r.st.Entities, w)
}

func (r *RegistryService) UpdateEntity(ctx context.Context, id uint, w models.EntityWrite) (models.Entity, error) {
	return updateChecked(ctx, r.st.Entities, id, w)
}

func (r *RegistryService) CreateClient(ctx context.Context, w models.ClientWrite) (models.Client, error) {
	return createChecked(ctx, r.st.Clients, w)
}

func (r *RegistryService) UpdateClient(ctx context.Context, id uint, w models.ClientWrite) (models.Client, error) {
	return updateChecked(ctx, r.st.Clients, id, w)
}

func (r *RegistryService) CreateSite(ctx context.Context, w models.SiteWrite) (models.Site, error) {
	return createChecked(ctx, r.st.Sites, w)
}

func (r *RegistryService) UpdateSite(ctx context.Context, id uint, w models.SiteWrite) (models.Site, error) {
	return updateChecked(ctx, r.st.Sites, id, w)
}

func (r *RegistryService) CreateCategory(ctx context.Context, w models.CategoryWrite) (models.Category, error) {
	return createChecked(ctx, r.st.Categories, w)
}

func (r *RegistryService) UpdateCategory(ctx context.Context, id uint, w models.CategoryWrite) (models.Category, error) {
	return updateChecked(ctx, r.st.Categories, id, w)
}

func (r *RegistryService) CreateProduct(ctx context.Context, w models.ProductWrite) (models.Product, error) {
	return createChecked(ctx, r.st.Products, w)
}

func (r *RegistryService) UpdateProduct(ctx context.Context, id uint, w models.ProductWrite) (models.Product, error) {
	return updateChecked(ctx, r.st.Products, id, w)
}

// ProductsByCategory returns the cached products of one category.
func (r *RegistryService) ProductsByCategory(categoryID uint) []models.Product {
	return r.st.Products.Filter(func(p models.Product) bool { return p.Category.ID == categoryID })
}

// SitesOfClient returns the cached sites of one client.
func (r *RegistryService) SitesOfClient(clientID uint) []models.Site {
	return r.st.Sites.Filter(func(s models.Site) bool { return s.Client.ID == clientID })
}

// CategoriesOfEntity returns the cached categories of one entity.
func (r *RegistryService) CategoriesOfEntity(entityID uint) []models.Category {
	return r.st.Categories.Filter(func(c models.Category) bool { return c.Entity.ID == entityID })
}
