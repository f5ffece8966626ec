// Package app is the composition root of the back-office client: it builds every
// collection store and service from one transport client.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/backoffice/internal/api"
	"github.com/diewo77/backoffice/internal/config"
	"github.com/diewo77/backoffice/internal/logging"
	"github.com/diewo77/backoffice/internal/metrics"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/services"
	"github.com/diewo77/backoffice/internal/store"
	"github.com/diewo77/backoffice/internal/workflow"
)

type App struct {
	Client *api.Client
	Engine *workflow.Engine
	Stores *services.Stores

	Registry     *services.RegistryService
	Offers       *services.OfferService
	Affairs      *services.AffairService
	Trainings    *services.TrainingService
	Certificates *services.CertificateService
	Billing      *services.BillingService
	Integrity    *services.IntegrityService

	logger *zap.Logger
}

type Options struct {
	Logger               *zap.Logger
	Metrics              *metrics.Metrics
	Location             *time.Location
	TrainingCategoryCode string
}

// NewFromConfig builds the transport from cfg.API and the app on top of it.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*App, error) {
	client, err := api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.RequestTimeout()),
		api.WithLogger(logger),
		api.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}
	return New(client, Options{
		Logger:               logger,
		Metrics:              m,
		Location:             cfg.Domain.Location(),
		TrainingCategoryCode: cfg.Domain.TrainingCategoryCode,
	}), nil
}

func New(client *api.Client, opts Options) *App {
	logger := logging.OrNop(opts.Logger)
	sopts := []store.Option{store.WithLogger(logger), store.WithMetrics(opts.Metrics)}

	st := &services.Stores{
		Entities:     plain[models.Entity, models.EntityWrite](client, api.Entities, sopts),
		Clients:      plain[models.Client, models.ClientWrite](client, api.Clients, sopts),
		Sites:        plain[models.Site, models.SiteWrite](client, api.Sites, sopts),
		Categories:   plain[models.Category, models.CategoryWrite](client, api.Categories, sopts),
		Products:     plain[models.Product, models.ProductWrite](client, api.Products, sopts),
		Offers:       withStatus[models.Offer, models.OfferWrite](client, api.Offers, sopts),
		Proformas:    withStatus[models.Proforma, models.ProformaWrite](client, api.Proformas, sopts),
		Invoices:     withStatus[models.Invoice, models.InvoiceWrite](client, api.Invoices, sopts),
		Reports:      withStatus[models.Report, models.ReportWrite](client, api.Reports, sopts),
		Affairs:      withStatus[models.Affair, models.AffairWrite](client, api.Affairs, sopts),
		Trainings:    plain[models.Training, models.TrainingWrite](client, api.Trainings, sopts),
		Participants: plain[models.Participant, models.ParticipantWrite](client, api.Participants, sopts),
		Certificates: withStatus[models.Certificate, models.CertificateWrite](client, api.Certificates, sopts),
	}
	engine := workflow.NewEngine(logger)

	return &App{
		Client:       client,
		Engine:       engine,
		Stores:       st,
		Registry:     services.NewRegistryService(st),
		Offers:       services.NewOfferService(st, engine),
		Affairs:      services.NewAffairService(st, opts.Location),
		Trainings:    services.NewTrainingService(st, opts.TrainingCategoryCode),
		Certificates: services.NewCertificateService(st, engine),
		Billing:      services.NewBillingService(st, engine),
		Integrity:    services.NewIntegrityService(st, logger),
		logger:       logger,
	}
}

func plain[R store.Identifiable, W any](c *api.Client, name string, opts []store.Option) *store.Store[R, W] {
	return store.New[R, W](name, api.NewResource[R, W](c, name), opts...)
}

func withStatus[R store.Identifiable, W any](c *api.Client, name string, opts []store.Option) *store.Store[R, W] {
	return store.New[R, W](name, api.NewStatusResource[R, W](c, name), opts...)
}

// LoadAll performs the initial load of every store in parallel. Stores already
// loaded are skipped.
func (a *App) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range a.Stores.Loaders() {
		g.Go(func() error {
			if err := l.EnsureLoaded(ctx); err != nil {
				return fmt.Errorf("load %s: %w", l.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("stores loaded", zap.Int("stores", len(a.Stores.Loaders())))
	return nil
}

// Refresh re-fetches the given stores, typically the dependents of a document
// whose status just changed.
func (a *App) Refresh(ctx context.Context, loaders ...services.Loader) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range loaders {
		g.Go(func() error {
			if err := l.Reload(ctx); err != nil {
				return fmt.Errorf("reload %s: %w", l.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
