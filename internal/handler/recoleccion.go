package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/queue"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
	"github.com/iliyamo/acrux-trazabilidad/internal/service"
)

// publishTimeout bounds the background event publish.
const publishTimeout = 10 * time.Second

// RecoleccionHandler captures and lists waste collections.
type RecoleccionHandler struct {
	scoper
	Recs    *repository.RecoleccionRepo
	Catalog *repository.CatalogRepo
	Events  service.EventPublisher
	Log     logrus.FieldLogger

	now func() time.Time
}

func NewRecoleccionHandler(recs *repository.RecoleccionRepo, catalog *repository.CatalogRepo, users *repository.UserRepo, events service.EventPublisher, log logrus.FieldLogger) *RecoleccionHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	return &RecoleccionHandler{scoper: scoper{users: users}, Recs: recs, Catalog: catalog, Events: events, Log: log, now: time.Now}
}

type recoleccionReq struct {
	LocalID          uint64  `json:"local_id"`
	TipoResiduoID    uint64  `json:"tipo_residuo_id"`
	CantidadKg       float64 `json:"cantidad_kg"`
	FechaRecoleccion string  `json:"fecha_recoleccion"`
	Observaciones    string  `json:"observaciones"`
}

// NewFolio returns a human-readable unique folio, e.g. REC-20250314-9F2C4A1B.
func NewFolio(day time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "REC-" + day.Format("20060102") + "-" + id[:8]
}

// Create handles POST /api/recolecciones.  The plaza is taken from the
// local; users assigned to a plaza may only capture for it.
func (h *RecoleccionHandler) Create(c echo.Context) error {
	var req recoleccionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.LocalID == 0 || req.TipoResiduoID == 0 {
		return fail(c, http.StatusBadRequest, "local_id and tipo_residuo_id required")
	}
	if req.CantidadKg <= 0 {
		return fail(c, http.StatusBadRequest, "cantidad_kg must be positive")
	}
	fecha := h.now().UTC().Truncate(24 * time.Hour)
	if req.FechaRecoleccion != "" {
		d, err := parseDate(req.FechaRecoleccion)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid fecha_recoleccion, expected YYYY-MM-DD")
		}
		fecha = *d
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.caller(ctx, c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	local, err := h.Catalog.GetLocal(ctx, req.LocalID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !local.Activo) {
		return fail(c, http.StatusBadRequest, "unknown local")
	}
	if err != nil {
		return repoError(c, err, "load local failed")
	}
	tipo, err := h.Catalog.GetTipo(ctx, req.TipoResiduoID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !tipo.Activo) {
		return fail(c, http.StatusBadRequest, "unknown tipo_residuo")
	}
	if err != nil {
		return repoError(c, err, "load tipo failed")
	}
	if u.Rol != model.RoleAdmin && u.PlazaID != nil && *u.PlazaID != local.PlazaID {
		return fail(c, http.StatusForbidden, "acceso denegado")
	}

	rec := model.Recoleccion{
		Folio:             NewFolio(fecha),
		PlazaID:           local.PlazaID,
		LocalID:           local.ID,
		TipoResiduoID:     tipo.ID,
		CapturadorID:      u.ID,
		CantidadKg:        req.CantidadKg,
		FechaRecoleccion:  fecha,
		Observaciones:     strings.TrimSpace(req.Observaciones),
		LocalNombre:       local.Nombre,
		TipoResiduoNombre: tipo.Nombre,
	}
	if err := h.Recs.Create(ctx, &rec); err != nil {
		return repoError(c, err, "create recoleccion failed")
	}
	if p, err := h.Catalog.GetPlaza(ctx, rec.PlazaID); err == nil {
		rec.PlazaNombre = p.Nombre
	}
	rec.CreatedAt = h.now().UTC()

	go h.publish(eventFor(rec))
	return data(c, http.StatusCreated, rec)
}

func eventFor(rec model.Recoleccion) queue.RecoleccionRegistradaEvent {
	return queue.RecoleccionRegistradaEvent{
		RecoleccionID: rec.ID,
		Folio:         rec.Folio,
		PlazaID:       rec.PlazaID,
		PlazaNombre:   rec.PlazaNombre,
		LocalID:       rec.LocalID,
		LocalNombre:   rec.LocalNombre,
		TipoResiduo:   rec.TipoResiduoNombre,
		CantidadKg:    rec.CantidadKg,
		Fecha:         rec.FechaRecoleccion.Format(time.DateOnly),
		CapturadorID:  rec.CapturadorID,
		RegistradaAt:  rec.CreatedAt.Format(time.RFC3339),
	}
}

func (h *RecoleccionHandler) publish(ev queue.RecoleccionRegistradaEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.Events.PublishRecoleccion(ctx, ev); err != nil {
		h.Log.WithError(err).WithField("folio", ev.Folio).Warn("recoleccion event not published")
	}
}

// List handles GET /api/recolecciones.
func (h *RecoleccionHandler) List(c echo.Context) error {
	_, f, ok, err := h.scopedFilter(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	items, total, err := h.Recs.List(ctx, f)
	if err != nil {
		return repoError(c, err, "list recolecciones failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":   items,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// Get handles GET /api/recolecciones/:id.  Records outside the caller's
// scope are reported as missing.
func (h *RecoleccionHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.caller(ctx, c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	rec, err := h.Recs.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "load recoleccion failed")
	}
	if !canSee(u, rec) {
		return fail(c, http.StatusNotFound, "not found")
	}
	return data(c, http.StatusOK, rec)
}

type recoleccionUpdateReq struct {
	TipoResiduoID    uint64   `json:"tipo_residuo_id"`
	CantidadKg       *float64 `json:"cantidad_kg"`
	FechaRecoleccion string   `json:"fecha_recoleccion"`
	Observaciones    *string  `json:"observaciones"`
}

// Update handles PUT /api/recolecciones/:id.
func (h *RecoleccionHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req recoleccionUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.caller(ctx, c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	rec, err := h.Recs.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "load recoleccion failed")
	}
	// Records outside the caller's scope look missing.
	if !canSee(u, rec) {
		return fail(c, http.StatusNotFound, "not found")
	}
	// Only measured fields can change; plaza, local and capturador stay.
	if req.TipoResiduoID != 0 && req.TipoResiduoID != rec.TipoResiduoID {
		tipo, err := h.Catalog.GetTipo(ctx, req.TipoResiduoID)
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "unknown tipo_residuo")
		}
		if err != nil {
			return repoError(c, err, "load tipo failed")
		}
		rec.TipoResiduoID, rec.TipoResiduoNombre = tipo.ID, tipo.Nombre
	}
	if req.CantidadKg != nil {
		if *req.CantidadKg <= 0 {
			return fail(c, http.StatusBadRequest, "cantidad_kg must be positive")
		}
		rec.CantidadKg = *req.CantidadKg
	}
	if req.FechaRecoleccion != "" {
		d, err := parseDate(req.FechaRecoleccion)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid fecha_recoleccion, expected YYYY-MM-DD")
		}
		rec.FechaRecoleccion = *d
	}
	if req.Observaciones != nil {
		rec.Observaciones = strings.TrimSpace(*req.Observaciones)
	}
	if err := h.Recs.Update(ctx, rec); err != nil {
		return repoError(c, err, "update recoleccion failed")
	}
	return data(c, http.StatusOK, rec)
}
