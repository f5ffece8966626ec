// Package handlers implements the REST contract of the back-office backend over gorm.
// Every write re-checks the invariants the client checks, so the client checks only
// fail fast.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/backoffice/httpx"
	"github.com/diewo77/backoffice/internal/db"
	"github.com/diewo77/backoffice/internal/derivation"
	"github.com/diewo77/backoffice/internal/logging"
	"github.com/diewo77/backoffice/internal/models"
	"github.com/diewo77/backoffice/internal/workflow"
	"github.com/diewo77/backoffice/validation"
)

type Handler struct {
	db     *gorm.DB
	seq    db.Sequencer
	engine *workflow.Engine
	code   string
	logger *zap.Logger
}

type Options struct {
	Sequencer            db.Sequencer
	Engine               *workflow.Engine
	TrainingCategoryCode string
	Logger               *zap.Logger
}

func New(gdb *gorm.DB, opts Options) *Handler {
	h := &Handler{
		db:     gdb,
		seq:    opts.Sequencer,
		engine: opts.Engine,
		code:   opts.TrainingCategoryCode,
		logger: logging.OrNop(opts.Logger),
	}
	if h.seq == nil {
		h.seq = db.NewDBSequencer(gdb)
	}
	if h.engine == nil {
		h.engine = workflow.NewEngine(h.logger)
	}
	if h.code == "" {
		h.code = derivation.DefaultTrainingCategoryCode
	}
	return h
}

var errBadID = errors.New("invalid id")

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}

// writeError maps domain errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr       *validation.Error
		missing    *derivation.MissingSourceError
		schedule   *derivation.InvalidScheduleError
		ineligible *derivation.IneligibleProductError
		lineage    *derivation.LineageMismatchError
		mismatch   *derivation.EntityMismatchError
	)
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation failed", verr.Violations)
	case errors.As(err, &schedule):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error(), schedule.Violations())
	case errors.As(err, &missing):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error(), validation.Violations{missing.Source: "required"})
	case errors.As(err, &ineligible):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error(), validation.Violations{"produit": "ineligible"})
	case errors.As(err, &lineage):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error(), validation.Violations{lineage.Field: "lineage_mismatch"})
	case errors.As(err, &mismatch):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error(), validation.Violations{mismatch.Field: "mismatch"})
	case errors.Is(err, workflow.ErrOverrideReason):
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error(), validation.Violations{"reason": "required"})
	case errors.Is(err, workflow.ErrInvalidTransition):
		httpx.JSONError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, errBadID):
		httpx.JSONError(w, http.StatusBadRequest, "invalid id", nil)
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

type ref struct {
	field string
	model any
	id    uint
}

// checkRefs flags every referenced row that does not exist as "not_found".
func (h *Handler) checkRefs(ctx context.Context, refs ...ref) error {
	v := make(validation.Violations)
	tx := h.db.WithContext(ctx)
	for _, rf := range refs {
		if rf.id == 0 {
			continue
		}
		ok, err := db.Exists(tx, rf.model, rf.id)
		if err != nil {
			return err
		}
		if !ok {
			v[rf.field] = "not_found"
		}
	}
	return v.Err()
}

// stamp fills the server-owned document columns of a new document.
func (h *Handler) stamp(ctx context.Context, d *db.DocumentFields, docType string) error {
	now := h.engine.Now()
	ref, seq, err := h.nextReference(ctx, d.EntityID, docType, now)
	if err != nil {
		return err
	}
	d.Statut = string(models.StatusBrouillon)
	d.DocType = docType
	d.DateCreation = now
	d.Reference = ref
	d.SequenceNumber = seq
	return nil
}

func (h *Handler) nextReference(ctx context.Context, entityID uint, docType string, now time.Time) (string, int, error) {
	seq, err := h.seq.Next(ctx, entityID, docType, now.Year())
	if err != nil {
		return "", 0, err
	}
	var ent db.EntityRecord
	code := ""
	if err := h.db.WithContext(ctx).First(&ent, entityID).Error; err == nil {
		code = ent.Code
	}
	return db.Reference(code, docType, now.Year(), seq), seq, nil
}

// Health reports whether the database answers a trivial query.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
