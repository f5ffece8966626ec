package derivation

import (
	"errors"
	"testing"
	"time"

	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/validation"
)

var (
	salesCat    = models.Category{ID: 1, Code: "VTE"}
	trainingCat = models.Category{ID: 2, Code: "FOR"}
)

func offerWith(products ...models.Product) models.Offer {
	return models.Offer{
		Document: models.Document{
			ID:     30,
			Entity: models.Entity{ID: 1, Code: "ABC"},
			Client: models.Client{ID: 2},
			Statut: models.StatusValide,
		},
		Produits: products,
		Sites:    []models.Site{{ID: 100}},
	}
}

func affairOf(o models.Offer) models.Affair {
	return models.Affair{ID: 40, Offre: o, Entity: o.Entity, Client: o.Client, Statut: models.AffaireEnCours}
}

func TestCheckOffer(t *testing.T) {
	err := CheckOffer(models.OfferWrite{})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("CheckOffer(empty) = %v, want *validation.Error", err)
	}
	for _, f := range []string{"entity", "client", "produits", "sites"} {
		if verr.Violations[f] != "required" {
			t.Errorf("missing violation for %s: %v", f, verr.Violations)
		}
	}

	ok := models.OfferWrite{
		DocumentWrite: models.DocumentWrite{Entity: 1, Client: 2},
		Produits:      []uint{10},
		Sites:         []uint{100},
	}
	if err := CheckOffer(ok); err != nil {
		t.Fatalf("CheckOffer(complete) = %v", err)
	}
}

func TestCheckOfferLeavesDraft(t *testing.T) {
	o := offerWith()
	o.Statut = models.StatusBrouillon
	if err := CheckOfferLeavesDraft(o, models.StatusEnvoye); err == nil {
		t.Fatal("offer without products must not leave BROUILLON")
	}
	o.Produits = []models.Product{{ID: 10}}
	if err := CheckOfferLeavesDraft(o, models.StatusEnvoye); err != nil {
		t.Fatalf("complete offer: %v", err)
	}
	sent := offerWith()
	sent.Statut = models.StatusEnvoye
	if err := CheckOfferLeavesDraft(sent, models.StatusValide); err != nil {
		t.Fatalf("only BROUILLON exits are gated: %v", err)
	}
}

func TestSelectableProducts(t *testing.T) {
	all := []models.Product{{ID: 10, Category: salesCat}, {ID: 11, Category: trainingCat}, {ID: 12, Category: salesCat}}
	if got := SelectableProducts(all, 0); len(got) != 3 {
		t.Errorf("no filter: got %d products", len(got))
	}
	got := SelectableProducts(all, salesCat.ID)
	if len(got) != 2 || got[0].ID != 10 || got[1].ID != 12 {
		t.Errorf("sales filter = %v", got)
	}
}

func TestAffairFromOffer(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	o := offerWith(models.Product{ID: 10, Category: salesCat})
	end := time.Date(2024, 4, 30, 9, 30, 0, 0, loc)
	w, err := AffairFromOffer(&o, Schedule{Start: time.Date(2024, 4, 1, 14, 0, 0, 0, loc), End: &end}, loc)
	if err != nil {
		t.Fatalf("AffairFromOffer: %v", err)
	}
	if w.Entity != o.Entity.ID || w.Client != o.Client.ID || w.Offre != o.ID {
		t.Errorf("identity not copied: %+v", w)
	}
	if w.Statut != models.AffaireEnCours {
		t.Errorf("Statut = %s, want EN_COURS", w.Statut)
	}
	if want := time.Date(2024, 4, 1, 0, 0, 0, 0, loc); !w.DateDebut.Equal(want) {
		t.Errorf("DateDebut = %v, want %v", w.DateDebut, want)
	}
	if want := time.Date(2024, 4, 30, 23, 59, 59, 0, loc); w.DateFinPrevue == nil || !w.DateFinPrevue.Equal(want) {
		t.Errorf("DateFinPrevue = %v, want %v", w.DateFinPrevue, want)
	}
}

func TestAffairFromOffer_SameDay(t *testing.T) {
	o := offerWith()
	day := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	if _, err := AffairFromOffer(&o, Schedule{Start: day, End: &day}, time.UTC); err != nil {
		t.Fatalf("same-day affair rejected: %v", err)
	}
}

func TestAffairFromOffer_InvalidSchedule(t *testing.T) {
	o := offerWith()
	end := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)
	_, err := AffairFromOffer(&o, Schedule{Start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), End: &end}, time.UTC)
	var se *InvalidScheduleError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *InvalidScheduleError", err)
	}
	if se.Field != "date_fin_prevue" {
		t.Errorf("Field = %s", se.Field)
	}
	if v := se.Violations(); v["date_fin_prevue"] != "before_start" || len(v) != 1 {
		t.Errorf("Violations() = %v", v)
	}
}

func TestAffairFromOffer_MissingSource(t *testing.T) {
	_, err := AffairFromOffer(nil, Schedule{Start: time.Now()}, time.UTC)
	var me *MissingSourceError
	if !errors.As(err, &me) || me.Source != "offre" {
		t.Fatalf("err = %v, want MissingSourceError(offre)", err)
	}
}

func TestCheckAffair_CrossEntity(t *testing.T) {
	o := offerWith()
	w := models.AffairWrite{Offre: o.ID, Entity: 99, Client: o.Client.ID, DateDebut: time.Now(), Statut: models.AffaireEnCours}
	var em *EntityMismatchError
	if err := CheckAffair(w, o); !errors.As(err, &em) || em.Field != "entity" {
		t.Fatalf("err = %v, want entity mismatch", err)
	}
}

func TestEligibleProducts(t *testing.T) {
	o := offerWith(
		models.Product{ID: 10, Category: salesCat},
		models.Product{ID: 11, Category: trainingCat},
	)
	got := EligibleProducts(o, DefaultTrainingCategoryCode)
	if len(got) != 1 || got[0].ID != 11 {
		t.Fatalf("EligibleProducts = %v, want [11]", got)
	}
	if got := EligibleProducts(offerWith(models.Product{ID: 10, Category: salesCat}), "FOR"); len(got) != 0 {
		t.Fatalf("sales-only offer: %v", got)
	}
}

func TestCheckTrainingProduct(t *testing.T) {
	salesOnly := affairOf(offerWith(models.Product{ID: 10, Category: salesCat}))
	mixed := affairOf(offerWith(
		models.Product{ID: 10, Category: salesCat},
		models.Product{ID: 11, Category: trainingCat},
	))

	tests := []struct {
		name    string
		affair  models.Affair
		product uint
		reason  string
	}{
		{"no training product, sales product", salesOnly, 10, ReasonNoTrainingProducts},
		{"no training product, foreign product", salesOnly, 77, ReasonNoTrainingProducts},
		{"sales product", mixed, 10, ReasonNotTrainingProduct},
		{"product outside offer", mixed, 77, ReasonNotInOffer},
		{"training product", mixed, 11, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTrainingProduct(tt.affair, tt.product, DefaultTrainingCategoryCode)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ie *IneligibleProductError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want *IneligibleProductError", err)
			}
			if ie.Reason != tt.reason || ie.ProductID != tt.product || ie.AffairID != tt.affair.ID {
				t.Errorf("got %+v", ie)
			}
		})
	}
}

func TestTrainingFromAffair(t *testing.T) {
	a := affairOf(offerWith(models.Product{ID: 11, Category: trainingCat}))
	start := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	w, err := TrainingFromAffair(&a, 11, TrainingSchedule{Start: start, End: start.Add(7 * time.Hour)}, TrainingMeta{Titre: "Habilitation"}, "FOR")
	if err != nil {
		t.Fatalf("TrainingFromAffair: %v", err)
	}
	if w.Affaire != a.ID || w.Client != a.Client.ID || w.Produit != 11 {
		t.Errorf("payload = %+v", w)
	}

	_, err = TrainingFromAffair(&a, 11, TrainingSchedule{Start: start, End: start.Add(-time.Minute)}, TrainingMeta{Titre: "x"}, "FOR")
	var se *InvalidScheduleError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *InvalidScheduleError", err)
	}

	_, err = TrainingFromAffair(&a, 11, TrainingSchedule{Start: start, End: start}, TrainingMeta{}, "FOR")
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Violations["titre"] != "required" {
		t.Fatalf("err = %v, want titre required", err)
	}
}

func lineage() (models.Proforma, models.Training, models.Participant) {
	o := offerWith(models.Product{ID: 11, Category: trainingCat})
	p := models.Proforma{Document: models.Document{ID: 50, Entity: o.Entity, Client: o.Client}, Offre: o}
	tr := models.Training{ID: 60, Affaire: affairOf(o)}
	pa := models.Participant{ID: 70, Formation: tr}
	return p, tr, pa
}

func TestCertificateFrom(t *testing.T) {
	p, tr, pa := lineage()
	w, err := CertificateFrom(&p, &tr, &pa, "2 jours")
	if err != nil {
		t.Fatalf("CertificateFrom: %v", err)
	}
	if w.Entity != p.Entity.ID || w.Client != p.Client.ID || w.Statut != models.StatusBrouillon {
		t.Errorf("payload = %+v", w)
	}
	if err := CheckCertificate(w, p, tr, pa); err != nil {
		t.Errorf("CheckCertificate: %v", err)
	}
}

func TestCheckLineage(t *testing.T) {
	p, tr, pa := lineage()

	other := p
	other.Offre.ID = 31
	var le *LineageMismatchError
	if err := CheckLineage(other, tr, pa); !errors.As(err, &le) || le.Field != "formation.affaire.offre" {
		t.Fatalf("offer mismatch: %v", err)
	}

	stray := pa
	stray.Formation = models.Training{ID: 61}
	if err := CheckLineage(p, tr, stray); !errors.As(err, &le) || le.Field != "participant.formation" {
		t.Fatalf("participant mismatch: %v", err)
	}
}

func TestBillingChain(t *testing.T) {
	o := offerWith(models.Product{ID: 10})
	pw, err := ProformaFromOffer(&o)
	if err != nil {
		t.Fatal(err)
	}
	if pw.Offre != o.ID || pw.Entity != o.Entity.ID || pw.Client != o.Client.ID {
		t.Errorf("proforma = %+v", pw)
	}
	if err := CheckProforma(pw, o); err != nil {
		t.Errorf("CheckProforma: %v", err)
	}

	p := models.Proforma{Document: models.Document{ID: 50, Entity: o.Entity, Client: o.Client}, Offre: o}
	iw, err := InvoiceFromProforma(&p)
	if err != nil || iw.Proforma != 50 {
		t.Fatalf("invoice = %+v, %v", iw, err)
	}
	rw, err := ReportFromProforma(&p)
	if err != nil || rw.Proforma != 50 {
		t.Fatalf("report = %+v, %v", rw, err)
	}

	iw.Client = 3
	var em *EntityMismatchError
	if err := CheckProformaChild(iw.DocumentWrite, iw.Proforma, p); !errors.As(err, &em) || em.Field != "client" {
		t.Fatalf("cross-client invoice: %v", err)
	}

	var me *MissingSourceError
	if _, err := InvoiceFromProforma(nil); !errors.As(err, &me) {
		t.Fatalf("nil proforma: %v", err)
	}
}
