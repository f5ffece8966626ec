package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/backoffice/httpx"
	"github.com/diewo77/backoffice/internal/db"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/workflow"
	"github.com/diewo77/backoffice/validation"
)

type statusKind int

const (
	noStatus statusKind = iota
	documentStatus
	affairStatus
)

// statusRecord is implemented by every record that carries a lifecycle column.
type statusRecord interface {
	Status() string
	SetStatus(s string, at time.Time)
}

// filter narrows a list query to the rows referencing id.
type filter func(tx *gorm.DB, id uint) *gorm.DB

func column(name string) filter {
	return func(tx *gorm.DB, id uint) *gorm.DB { return tx.Where(name+" = ?", id) }
}

// resource serves one REST collection. Rec is the gorm record, R the read shape
// and W the write payload.
type resource[Rec any, R any, W any] struct {
	h       *Handler
	name    string
	status  statusKind
	filters map[string]filter

	apply func(*Rec, W)
	read  func(*db.Assembler, *Rec) R

	// check validates w against the database. existing is nil on create.
	check func(ctx context.Context, w W, existing *Rec) error
	// prepare stamps server-owned columns before the first insert.
	prepare func(ctx context.Context, rec *Rec) error
	// touch runs on every update.
	touch func(rec *Rec)
	// saved and deleted run inside the write transaction.
	saved   func(tx *gorm.DB, rec *Rec, w W) error
	deleted func(tx *gorm.DB, id uint) error
	// leaving runs before a regular document transition.
	leaving func(ctx context.Context, rec *Rec, next models.DocumentStatus) error
}

type route interface {
	register(mux *http.ServeMux)
}

func (res *resource[Rec, R, W]) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /"+res.name+"/{$}", res.list)
	mux.HandleFunc("POST /"+res.name+"/{$}", res.create)
	mux.HandleFunc("GET /"+res.name+"/{id}/{$}", res.get)
	mux.HandleFunc("PUT /"+res.name+"/{id}/{$}", res.update)
	mux.HandleFunc("DELETE /"+res.name+"/{id}/{$}", res.delete)
	if res.status != noStatus {
		mux.HandleFunc("PATCH /"+res.name+"/{id}/status", res.setStatus)
	}
}

func (res *resource[Rec, R, W]) list(w http.ResponseWriter, r *http.Request) {
	tx := res.h.db.WithContext(r.Context()).Model(new(Rec))
	q := r.URL.Query()
	for param, f := range res.filters {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid filter", validation.Violations{param: "invalid"})
			return
		}
		tx = f(tx, uint(id))
	}
	var recs []Rec
	if err := tx.Order("id").Find(&recs).Error; err != nil {
		res.h.writeError(w, r, err)
		return
	}
	asm := db.NewAssembler(res.h.db.WithContext(r.Context()))
	out := make([]R, 0, len(recs))
	for i := range recs {
		out = append(out, res.read(asm, &recs[i]))
	}
	if err := asm.Err(); err != nil {
		res.h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (res *resource[Rec, R, W]) load(r *http.Request) (*Rec, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	rec := new(Rec)
	if err := res.h.db.WithContext(r.Context()).First(rec, id).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (res *resource[Rec, R, W]) respond(w http.ResponseWriter, r *http.Request, status int, rec *Rec) {
	asm := db.NewAssembler(res.h.db.WithContext(r.Context()))
	out := res.read(asm, rec)
	if err := asm.Err(); err != nil {
		res.h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, status, out)
}

func (res *resource[Rec, R, W]) get(w http.ResponseWriter, r *http.Request) {
	rec, err := res.load(r)
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	res.respond(w, r, http.StatusOK, rec)
}

func decode[W any](w http.ResponseWriter, r *http.Request) (W, bool) {
	var in W
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid json", nil)
		return in, false
	}
	return in, true
}

func (res *resource[Rec, R, W]) create(w http.ResponseWriter, r *http.Request) {
	in, ok := decode[W](w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := res.check(ctx, in, nil); err != nil {
		res.h.writeError(w, r, err)
		return
	}
	rec := new(Rec)
	res.apply(rec, in)
	if res.prepare != nil {
		// the sequencer runs its own transaction, so numbering happens before the insert
		if err := res.prepare(ctx, rec); err != nil {
			res.h.writeError(w, r, err)
			return
		}
	}
	err := res.h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if res.saved != nil {
			return res.saved(tx, rec, in)
		}
		return nil
	})
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	res.respond(w, r, http.StatusCreated, rec)
}

func (res *resource[Rec, R, W]) update(w http.ResponseWriter, r *http.Request) {
	rec, err := res.load(r)
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	in, ok := decode[W](w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := res.check(ctx, in, rec); err != nil {
		res.h.writeError(w, r, err)
		return
	}
	res.apply(rec, in)
	if res.touch != nil {
		res.touch(rec)
	}
	err = res.h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(rec).Error; err != nil {
			return err
		}
		if res.saved != nil {
			return res.saved(tx, rec, in)
		}
		return nil
	})
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	res.respond(w, r, http.StatusOK, rec)
}

// delete removes the row only. Dependents keep their reference and show up as orphans.
func (res *resource[Rec, R, W]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	err = res.h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		q := tx.Delete(new(Rec), id)
		if q.Error != nil {
			return q.Error
		}
		if q.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if res.deleted != nil {
			return res.deleted(tx, id)
		}
		return nil
	})
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// StatusRequest is the body of PATCH /{resource}/{id}/status. A non-empty reason
// marks a manual override out of a terminal state.
type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (res *resource[Rec, R, W]) setStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := res.load(r)
	if err != nil {
		res.h.writeError(w, r, err)
		return
	}
	in, ok := decode[StatusRequest](w, r)
	if !ok {
		return
	}
	sr, ok := any(rec).(statusRecord)
	if !ok {
		res.h.writeError(w, r, errors.New(res.name+": record has no status"))
		return
	}
	id, _ := pathID(r)
	if err := res.transition(r.Context(), id, rec, sr, in); err != nil {
		res.h.writeError(w, r, err)
		return
	}
	if err := res.h.db.WithContext(r.Context()).Save(rec).Error; err != nil {
		res.h.writeError(w, r, err)
		return
	}
	res.respond(w, r, http.StatusOK, rec)
}

func (res *resource[Rec, R, W]) transition(ctx context.Context, id uint, rec *Rec, sr statusRecord, in StatusRequest) error {
	now := res.h.engine.Now()
	if res.status == affairStatus {
		next := models.AffairStatus(in.Status)
		if !next.Valid() {
			return validation.Violations{"status": "invalid"}.Err()
		}
		if err := workflow.CheckAffairTransition(models.AffairStatus(sr.Status()), next); err != nil {
			return err
		}
		sr.SetStatus(string(next), now)
		return nil
	}

	cur, next := models.DocumentStatus(sr.Status()), models.DocumentStatus(in.Status)
	if !next.Valid() {
		return validation.Violations{"status": "invalid"}.Err()
	}
	if in.Reason != "" {
		if err := workflow.CheckOverride(cur, next, in.Reason); err != nil {
			return err
		}
		res.h.engine.LogOverride(id, cur, next, in.Reason)
		sr.SetStatus(string(next), now)
		return nil
	}
	if !workflow.CanTransition(cur, next) {
		return &workflow.InvalidTransitionError{From: string(cur), To: string(next)}
	}
	if res.leaving != nil {
		if err := res.leaving(ctx, rec, next); err != nil {
			return err
		}
	}
	sr.SetStatus(string(next), now)
	return nil
}
