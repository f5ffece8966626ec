package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/diewo77/backoffice/internal/metrics"
	"github.com/diewo77/backoffice/internal/models"
)

type recorded struct {
	method, path, query, requestID string
	body                           map[string]any
}

func newTestServer(t *testing.T, status int, reply any) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, requestID: r.Header.Get(RequestIDHeader)}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if reply != nil {
			_ = json.NewEncoder(w).Encode(reply)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResourcePaths(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, map[string]any{"id": 5, "statut": "ENVOYE"})
	c, err := NewClient(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	offers := NewStatusResource[models.Offer, models.OfferWrite](c, Offers)
	ctx := context.Background()

	if _, err := offers.Get(ctx, 5); err != nil {
		t.Fatal(err)
	}
	w := models.OfferWrite{DocumentWrite: models.DocumentWrite{Entity: 1, Client: 2}, Produits: []uint{10}, Sites: []uint{100}}
	if _, err := offers.Create(ctx, w); err != nil {
		t.Fatal(err)
	}
	if _, err := offers.Update(ctx, 5, w); err != nil {
		t.Fatal(err)
	}
	got, err := offers.SetStatus(ctx, 5, string(models.StatusEnvoye))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 5 || got.Statut != models.StatusEnvoye {
		t.Errorf("SetStatus decoded %+v", got)
	}

	want := []struct{ method, path string }{
		{http.MethodGet, "/offres/5/"},
		{http.MethodPost, "/offres/"},
		{http.MethodPut, "/offres/5/"},
		{http.MethodPatch, "/offres/5/status"},
	}
	if len(*calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(*calls), len(want))
	}
	for i, wc := range want {
		rc := (*calls)[i]
		if rc.method != wc.method || rc.path != wc.path {
			t.Errorf("call %d = %s %s, want %s %s", i, rc.method, rc.path, wc.method, wc.path)
		}
		if _, err := uuid.Parse(rc.requestID); err != nil {
			t.Errorf("call %d: request id %q is not a uuid", i, rc.requestID)
		}
	}
	if (*calls)[1].body["client"] != float64(2) {
		t.Errorf("create body client = %v, want bare id", (*calls)[1].body["client"])
	}
	if (*calls)[3].body["status"] != "ENVOYE" {
		t.Errorf("status body = %v", (*calls)[3].body)
	}
}

func TestListQueryAndDelete(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, []map[string]any{{"id": 1}, {"id": 2}})
	c, _ := NewClient(srv.URL)
	parts := NewResource[models.Participant, models.ParticipantWrite](c, Participants)
	list, err := parts.List(context.Background(), url.Values{"client": {"3"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	if (*calls)[0].path != "/participants/" || (*calls)[0].query != "client=3" {
		t.Errorf("list call = %+v", (*calls)[0])
	}

	srv2, calls2 := newTestServer(t, http.StatusNoContent, nil)
	c2, _ := NewClient(srv2.URL)
	if err := NewResource[models.Client, models.ClientWrite](c2, Clients).Delete(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if (*calls2)[0].method != http.MethodDelete || (*calls2)[0].path != "/clients/3/" {
		t.Errorf("delete call = %+v", (*calls2)[0])
	}
}

func TestRemoteErrors(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnprocessableEntity, map[string]any{
		"error":   "validation failed",
		"details": map[string]string{"sites": "required"},
	})
	c, _ := NewClient(srv.URL)
	_, err := NewResource[models.Offer, models.OfferWrite](c, Offers).Create(context.Background(), models.OfferWrite{})
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %T %v, want *RemoteError", err, err)
	}
	if re.StatusCode != 422 || re.Message != "validation failed" || re.Details["sites"] != "required" {
		t.Errorf("RemoteError = %+v", re)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("422 must not match ErrNotFound")
	}

	nf, _ := newTestServer(t, http.StatusNotFound, map[string]any{"error": "not found"})
	c404, _ := NewClient(nf.URL)
	_, err = NewResource[models.Entity, models.EntityWrite](c404, Entities).Get(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("404 should match ErrNotFound, got %v", err)
	}
}

func TestNetworkErrorAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, nil)
	base := srv.URL
	srv.Close()

	m := metrics.New()
	c, _ := NewClient(base, WithMetrics(m))
	_, err := NewResource[models.Site, models.SiteWrite](c, Sites).List(context.Background(), nil)
	var re *RemoteError
	if !errors.As(err, &re) || re.StatusCode != 0 {
		t.Fatalf("err = %v, want RemoteError without status", err)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues(Sites, http.MethodGet, "0")); got != 1 {
		t.Errorf("network failures counted = %v, want 1", got)
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c, _ := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := NewResource[models.Client, models.ClientWrite](c, Clients).Get(context.Background(), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("localhost:8008"); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}
