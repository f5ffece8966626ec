package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/backoffice/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func TestMigrateCreatesTables(t *testing.T) {
	d := setupTestDB(t)
	for _, table := range []string{"entities", "offres", "offre_products", "affaires", "attestation_formations", "sequences"} {
		if !d.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}
}

func TestReference(t *testing.T) {
	if got := Reference("ABC", models.DocTypeOffer, 2024, 7); got != "ABC-OFF-2024-0007" {
		t.Errorf("Reference() = %q", got)
	}
	if got := Reference("", models.DocTypeInvoice, 2025, 12345); got != "XXX-FAC-2025-12345" {
		t.Errorf("Reference() = %q", got)
	}
}

func TestDBSequencer(t *testing.T) {
	d := setupTestDB(t)
	seq := NewDBSequencer(d)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := seq.Next(ctx, 1, models.DocTypeOffer, 2024)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	// Counters are independent per entity, doc type and year.
	for _, k := range []struct {
		entity uint
		doc    string
		year   int
	}{{2, models.DocTypeOffer, 2024}, {1, models.DocTypeProforma, 2024}, {1, models.DocTypeOffer, 2025}} {
		got, err := seq.Next(ctx, k.entity, k.doc, k.year)
		if err != nil {
			t.Fatal(err)
		}
		if got != 1 {
			t.Errorf("Next(%v) = %d, want 1", k, got)
		}
	}
}

func TestRedisSequencer(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	ctx := context.Background()
	year := time.Now().Year() + 1000
	rdb.Del(ctx, sequenceKey(9, models.DocTypeAffair, year))
	t.Cleanup(func() { rdb.Del(ctx, sequenceKey(9, models.DocTypeAffair, year)) })

	seq := NewRedisSequencer(rdb)
	for want := 1; want <= 2; want++ {
		got, err := seq.Next(ctx, 9, models.DocTypeAffair, year)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
}

func TestAssemblerEmbedsParents(t *testing.T) {
	d := setupTestDB(t)
	ent := EntityRecord{Code: "ABC", Name: "Acme"}
	cli := ClientRecord{Nom: "ClientCo"}
	mustCreate(t, d, &ent, &cli)
	cat := CategoryRecord{Code: "FOR", Name: "Formation", EntityID: ent.ID}
	mustCreate(t, d, &cat)
	prod := ProductRecord{Code: "EC1", Name: "Habilitation", CategoryID: cat.ID}
	site := SiteRecord{Nom: "Siège", ClientID: cli.ID}
	mustCreate(t, d, &prod, &site)
	off := OfferRecord{Doc: DocumentFields{EntityID: ent.ID, ClientID: cli.ID, Reference: "ABC-OFF-2024-0001", Statut: "BROUILLON", DocType: "OFF", SequenceNumber: 1}}
	mustCreate(t, d, &off)
	mustCreate(t, d, &OfferProduct{OfferID: off.ID, ProductID: prod.ID}, &OfferSite{OfferID: off.ID, SiteID: site.ID})

	a := NewAssembler(d)
	o := a.Offer(off.ID)
	if err := a.Err(); err != nil {
		t.Fatal(err)
	}
	if o.Entity.Code != "ABC" || o.Client.Nom != "ClientCo" {
		t.Errorf("parents not embedded: %+v", o.Document)
	}
	if len(o.Produits) != 1 || o.Produits[0].Category.Code != "FOR" || o.Produits[0].Category.Entity.ID != ent.ID {
		t.Errorf("produits = %+v", o.Produits)
	}
	if len(o.Sites) != 1 || o.Sites[0].Client.ID != cli.ID {
		t.Errorf("sites = %+v", o.Sites)
	}
}

func TestAssemblerStubsMissingParents(t *testing.T) {
	d := setupTestDB(t)
	site := SiteRecord{Nom: "Orphan", ClientID: 404}
	mustCreate(t, d, &site)

	a := NewAssembler(d)
	s := a.Site(site.ID)
	if a.Err() != nil {
		t.Fatalf("missing parent must not be an error: %v", a.Err())
	}
	if s.Client.ID != 404 || s.Client.Nom != "" {
		t.Errorf("client = %+v, want id-only stub 404", s.Client)
	}
}

func TestExists(t *testing.T) {
	d := setupTestDB(t)
	c := ClientRecord{Nom: "x"}
	mustCreate(t, d, &c)
	if ok, err := Exists(d, &ClientRecord{}, c.ID); err != nil || !ok {
		t.Errorf("Exists(created) = %v, %v", ok, err)
	}
	if ok, _ := Exists(d, &ClientRecord{}, c.ID+100); ok {
		t.Error("Exists(missing) = true")
	}
	if ok, _ := Exists(d, &ClientRecord{}, 0); ok {
		t.Error("Exists(0) = true")
	}
}

func mustCreate(t *testing.T, d *gorm.DB, recs ...any) {
	t.Helper()
	for _, r := range recs {
		if err := d.Create(r).Error; err != nil {
			t.Fatalf("create %T: %v", r, err)
		}
	}
}
