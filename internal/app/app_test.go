package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/backoffice/internal/api"
	"github.com/diewo77/backoffice/internal/db"
	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/handlers"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/store"
	"github.com/diewo77/backoffice/internal/workflow"
	"github.com/diewo77/backoffice/validation"
)

// tickingClock advances one second per reading so successive server writes get distinct times.
type tickingClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	clock := &tickingClock{cur: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	h := handlers.New(gdb, handlers.Options{Engine: workflow.NewEngine(nil).WithClock(clock.Now)})
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, api.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return New(client, Options{Location: time.UTC})
}

type catalog struct {
	entity, client, site           uint
	trainingCategory, saleCategory uint
	trainingProduct, saleProduct   uint
}

func seedCatalog(t *testing.T, a *App) catalog {
	t.Helper()
	ctx := context.Background()
	var c catalog
	must := func(id uint, err error) uint {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		return id
	}
	e, err := a.Registry.CreateEntity(ctx, models.EntityWrite{Code: "ABC", Name: "Acme"})
	c.entity = must(e.ID, err)
	cl, err := a.Registry.CreateClient(ctx, models.ClientWrite{Nom: "Dupont"})
	c.client = must(cl.ID, err)
	s, err := a.Registry.CreateSite(ctx, models.SiteWrite{Nom: "Usine", Client: c.client})
	c.site = must(s.ID, err)
	tc, err := a.Registry.CreateCategory(ctx, models.CategoryWrite{Code: "FOR", Name: "Formation", Entity: c.entity})
	c.trainingCategory = must(tc.ID, err)
	sc, err := a.Registry.CreateCategory(ctx, models.CategoryWrite{Code: "VEN", Name: "Vente", Entity: c.entity})
	c.saleCategory = must(sc.ID, err)
	tp, err := a.Registry.CreateProduct(ctx, models.ProductWrite{Code: "EC10", Name: "SST", Category: c.trainingCategory})
	c.trainingProduct = must(tp.ID, err)
	sp, err := a.Registry.CreateProduct(ctx, models.ProductWrite{Code: "VTE10", Name: "Extincteur", Category: c.saleCategory})
	c.saleProduct = must(sp.ID, err)
	return c
}

func (c catalog) offer(t *testing.T, a *App, products ...uint) models.Offer {
	t.Helper()
	d := a.Offers.NewDraft()
	d.SetEntity(c.entity)
	d.SetClient(c.client)
	for _, p := range products {
		if err := d.AddProduct(p); err != nil {
			t.Fatalf("AddProduct(%d): %v", p, err)
		}
	}
	d.AddSite(c.site)
	o, err := a.Offers.Create(context.Background(), d.Write())
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return o
}

func TestScenarioOfferLifecycle(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()

	o := c.offer(t, a, c.saleProduct)
	if o.Statut != models.StatusBrouillon || o.Reference != "ABC-OFF-2024-0001" {
		t.Fatalf("offer = %s %s", o.Statut, o.Reference)
	}
	sent, err := a.Offers.ChangeStatus(ctx, o.ID, models.StatusEnvoye)
	if err != nil {
		t.Fatalf("BROUILLON -> ENVOYE: %v", err)
	}
	if sent.Statut != models.StatusEnvoye {
		t.Errorf("statut = %s", sent.Statut)
	}
	if got, _ := a.Stores.Offers.Lookup(o.ID); got.Statut != models.StatusEnvoye {
		t.Errorf("cached statut = %s", got.Statut)
	}

	other := c.offer(t, a, c.saleProduct)
	_, err = a.Offers.ChangeStatus(ctx, other.ID, models.StatusValide)
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("BROUILLON -> VALIDE err = %v, want invalid transition", err)
	}
	if got, _ := a.Stores.Offers.Lookup(other.ID); got.Statut != models.StatusBrouillon {
		t.Errorf("rejected transition changed cached statut to %s", got.Statut)
	}
	allowed, err := a.Offers.AllowedTransitions(ctx, o.ID)
	if err != nil || len(allowed) != 2 {
		t.Errorf("AllowedTransitions(ENVOYE) = %v, %v", allowed, err)
	}
}

func TestOfferCreateRequiresProductsAndSites(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	w := models.OfferWrite{DocumentWrite: models.DocumentWrite{Entity: c.entity, Client: c.client}}
	_, err := a.Offers.Create(context.Background(), w)
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if verr.Violations["produits"] != "required" || verr.Violations["sites"] != "required" {
		t.Errorf("violations = %v", verr.Violations)
	}
	if a.Stores.Offers.Len() != 0 {
		t.Error("invalid offer reached the store")
	}
}

func TestScenarioNoTrainingProducts(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()

	o := c.offer(t, a, c.saleProduct)
	aff, err := a.Affairs.DeriveFromOffer(ctx, o.ID, derivation.Schedule{Start: time.Date(2024, 4, 1, 15, 30, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("derive affair: %v", err)
	}
	if aff.Entity.ID != o.Entity.ID || aff.Client.ID != o.Client.ID {
		t.Errorf("affair identity = %d/%d, offer = %d/%d", aff.Entity.ID, aff.Client.ID, o.Entity.ID, o.Client.ID)
	}
	if aff.Reference != "ABC-AFF-2024-0001" || aff.Statut != models.AffaireEnCours {
		t.Errorf("affair = %s %s", aff.Reference, aff.Statut)
	}
	if !aff.DateDebut.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date_debut = %v, want start of day", aff.DateDebut)
	}

	eligible, err := a.Trainings.EligibleProducts(ctx, aff.ID)
	if err != nil || len(eligible) != 0 {
		t.Fatalf("EligibleProducts = %v, %v", eligible, err)
	}
	if got := a.Trainings.AffairsWithoutTrainingProducts(); len(got) != 1 || got[0].ID != aff.ID {
		t.Errorf("AffairsWithoutTrainingProducts = %v", got)
	}
	sched := derivation.TrainingSchedule{Start: aff.DateDebut, End: aff.DateDebut.Add(8 * time.Hour)}
	for _, p := range []uint{c.saleProduct, c.trainingProduct} {
		_, err := a.Trainings.Create(ctx, aff.ID, p, sched, derivation.TrainingMeta{Titre: "SST"})
		var ierr *derivation.IneligibleProductError
		if !errors.As(err, &ierr) {
			t.Fatalf("product %d: err = %v, want ineligible", p, err)
		}
		if ierr.Reason != derivation.ReasonNoTrainingProducts {
			t.Errorf("reason = %q", ierr.Reason)
		}
	}
}

func TestScenarioAffairScheduleRejectedLocally(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	o := c.offer(t, a, c.saleProduct)

	end := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)
	_, err := a.Affairs.DeriveFromOffer(context.Background(), o.ID, derivation.Schedule{
		Start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   &end,
	})
	var serr *derivation.InvalidScheduleError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want invalid schedule", err)
	}
	if a.Stores.Affairs.Len() != 0 || a.Stores.Affairs.State() != store.Idle {
		t.Errorf("affair store touched: len=%d state=%s", a.Stores.Affairs.Len(), a.Stores.Affairs.State())
	}
}

func TestUpdateRefreshesModificationDate(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()
	o := c.offer(t, a, c.saleProduct, c.trainingProduct)

	first, err := a.Offers.Update(ctx, o.ID, o.ToWrite())
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Offers.Update(ctx, o.ID, first.ToWrite())
	if err != nil {
		t.Fatal(err)
	}
	if !second.DateModification.After(first.DateModification) {
		t.Errorf("date_modification not refreshed: %v then %v", first.DateModification, second.DateModification)
	}
	w1, w2 := first.ToWrite(), second.ToWrite()
	if w1.Entity != w2.Entity || w1.Client != w2.Client || fmt.Sprint(w1.Produits) != fmt.Sprint(w2.Produits) ||
		fmt.Sprint(w1.Sites) != fmt.Sprint(w2.Sites) || first.Reference != second.Reference {
		t.Errorf("update changed other fields: %+v vs %+v", w1, w2)
	}
}

func TestRoundTripKeepsForeignKeys(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()
	o := c.offer(t, a, c.trainingProduct, c.saleProduct)

	want := o.ToWrite()
	if _, err := a.Offers.Update(ctx, o.ID, want); err != nil {
		t.Fatal(err)
	}
	fetched, err := a.Stores.Offers.FetchByID(ctx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := fetched.ToWrite()
	if got.Entity != want.Entity || got.Client != want.Client ||
		fmt.Sprint(got.Produits) != fmt.Sprint(want.Produits) || fmt.Sprint(got.Sites) != fmt.Sprint(want.Sites) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestCertificateLineage(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()
	start := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	sched := derivation.TrainingSchedule{Start: start.Add(9 * time.Hour), End: start.Add(17 * time.Hour)}

	setup := func() (models.Proforma, models.Training, models.Participant) {
		t.Helper()
		o := c.offer(t, a, c.trainingProduct)
		p, err := a.Billing.ProformaFromOffer(ctx, o.ID)
		if err != nil {
			t.Fatalf("proforma: %v", err)
		}
		aff, err := a.Affairs.DeriveFromOffer(ctx, o.ID, derivation.Schedule{Start: start})
		if err != nil {
			t.Fatalf("affair: %v", err)
		}
		tr, err := a.Trainings.Create(ctx, aff.ID, c.trainingProduct, sched, derivation.TrainingMeta{Titre: "SST"})
		if err != nil {
			t.Fatalf("training: %v", err)
		}
		part, err := a.Trainings.AddParticipant(ctx, models.ParticipantWrite{Nom: "Martin", Prenom: "Léa", Formation: tr.ID})
		if err != nil {
			t.Fatalf("participant: %v", err)
		}
		return p, tr, part
	}
	p1, t1, part1 := setup()
	p2, _, _ := setup()

	cert, err := a.Certificates.Create(ctx, p1.ID, t1.ID, part1.ID, "8h")
	if err != nil {
		t.Fatalf("certificate: %v", err)
	}
	if cert.Formation.Affaire.Offre.ID != cert.Proforma.Offre.ID {
		t.Errorf("certificate lineage broken: %d != %d", cert.Formation.Affaire.Offre.ID, cert.Proforma.Offre.ID)
	}
	if cert.Reference != "ABC-ATT-2024-0001" || cert.Statut != models.StatusBrouillon {
		t.Errorf("certificate = %s %s", cert.Reference, cert.Statut)
	}

	_, err = a.Certificates.Create(ctx, p2.ID, t1.ID, part1.ID, "8h")
	var lerr *derivation.LineageMismatchError
	if !errors.As(err, &lerr) {
		t.Fatalf("err = %v, want lineage mismatch", err)
	}

	// the backend refuses the same payload when the client check is skipped
	w := cert.ToWrite()
	w.Proforma = p2.ID
	_, err = a.Stores.Certificates.Create(ctx, w)
	var rerr *api.RemoteError
	if !errors.As(err, &rerr) || rerr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("server err = %v, want 422", err)
	}
}

func TestServerRejectsIneligibleTraining(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()
	o := c.offer(t, a, c.saleProduct, c.trainingProduct)
	aff, err := a.Affairs.DeriveFromOffer(ctx, o.ID, derivation.Schedule{Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.Stores.Trainings.Create(ctx, models.TrainingWrite{
		Titre: "x", Client: c.client, Affaire: aff.ID, Produit: c.saleProduct,
		DateDebut: aff.DateDebut, DateFin: aff.DateDebut.Add(time.Hour),
	})
	var rerr *api.RemoteError
	if !errors.As(err, &rerr) || rerr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want 422", err)
	}
	if rerr.Details["produit"] != "ineligible" {
		t.Errorf("details = %v", rerr.Details)
	}
	if a.Stores.Trainings.State() != store.Failed {
		t.Errorf("state = %s, want Failed", a.Stores.Trainings.State())
	}
}

func TestOrphanScanAfterDelete(t *testing.T) {
	a := newTestApp(t)
	c := seedCatalog(t, a)
	ctx := context.Background()
	o := c.offer(t, a, c.saleProduct)

	if err := a.Stores.Clients.Delete(ctx, c.client); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if err := a.Refresh(ctx, a.Stores.Loaders()...); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	orphans := a.Integrity.Scan()
	var site, offer bool
	for _, x := range orphans {
		if x.MissingResource != api.Clients || x.MissingID != c.client {
			continue
		}
		switch {
		case x.Resource == api.Sites && x.ID == c.site:
			site = true
		case x.Resource == api.Offers && x.ID == o.ID:
			offer = true
		}
	}
	if !site || !offer {
		t.Errorf("orphans = %v, want site and offer pointing at client %d", orphans, c.client)
	}
	if got := a.Integrity.OrphansOf(api.Offers, o.ID); len(got) == 0 {
		t.Error("OrphansOf(offer) is empty")
	}
}

func TestLoadAllFillsEveryStore(t *testing.T) {
	a := newTestApp(t)
	seedCatalog(t, a)

	fresh := New(a.Client, Options{Location: time.UTC})
	if err := fresh.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fresh.Stores.Products.Len() != 2 || fresh.Stores.Categories.Len() != 2 {
		t.Errorf("products=%d categories=%d", fresh.Stores.Products.Len(), fresh.Stores.Categories.Len())
	}
	for _, l := range fresh.Stores.Loaders() {
		if l.Name() == "" {
			t.Error("loader without name")
		}
	}
}
