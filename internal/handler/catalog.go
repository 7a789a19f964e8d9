package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
)

// CatalogHandler serves plazas, locales and waste types.  Reads are open
// to every authenticated user; writes are routed for ADMIN only.
type CatalogHandler struct {
	Catalog *repository.CatalogRepo
}

func NewCatalogHandler(r *repository.CatalogRepo) *CatalogHandler {
	if r == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: r}
}

type plazaReq struct {
	Nombre string `json:"nombre"`
	Ciudad string `json:"ciudad"`
	Activa *bool  `json:"activa"`
}

type localReq struct {
	PlazaID     uint64 `json:"plaza_id"`
	Nombre      string `json:"nombre"`
	Responsable string `json:"responsable"`
	Activo      *bool  `json:"activo"`
}

type tipoReq struct {
	Nombre string `json:"nombre"`
	Unidad string `json:"unidad"`
	Activo *bool  `json:"activo"`
}

func flag(p *bool) bool { return p == nil || *p }

// ListPlazas handles GET /api/plazas.  ?activas=1 hides inactive plazas.
func (h *CatalogHandler) ListPlazas(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	ps, err := h.Catalog.ListPlazas(ctx, c.QueryParam("activas") == "1")
	if err != nil {
		return repoError(c, err, "list plazas failed")
	}
	return data(c, http.StatusOK, ps)
}

// CreatePlaza handles POST /api/plazas.
func (h *CatalogHandler) CreatePlaza(c echo.Context) error {
	var req plazaReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	p := model.Plaza{Nombre: strings.TrimSpace(req.Nombre), Ciudad: strings.TrimSpace(req.Ciudad), Activa: flag(req.Activa)}
	if p.Nombre == "" {
		return fail(c, http.StatusBadRequest, "nombre required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Catalog.CreatePlaza(ctx, &p); err != nil {
		return repoError(c, err, "create plaza failed")
	}
	return data(c, http.StatusCreated, p)
}

// UpdatePlaza handles PUT /api/plazas/:id.
func (h *CatalogHandler) UpdatePlaza(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req plazaReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	p, err := h.Catalog.GetPlaza(ctx, id)
	if err != nil {
		return repoError(c, err, "load plaza failed")
	}
	if n := strings.TrimSpace(req.Nombre); n != "" {
		p.Nombre = n
	}
	if req.Ciudad != "" {
		p.Ciudad = strings.TrimSpace(req.Ciudad)
	}
	if req.Activa != nil {
		p.Activa = *req.Activa
	}
	if err := h.Catalog.UpdatePlaza(ctx, p); err != nil {
		return repoError(c, err, "update plaza failed")
	}
	return data(c, http.StatusOK, p)
}

// ListLocales handles GET /api/locales?plaza_id=.
func (h *CatalogHandler) ListLocales(c echo.Context) error {
	plazaID, err := queryUint(c, "plaza_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid plaza_id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	ls, err := h.Catalog.ListLocales(ctx, plazaID)
	if err != nil {
		return repoError(c, err, "list locales failed")
	}
	return data(c, http.StatusOK, ls)
}

// CreateLocal handles POST /api/locales.
func (h *CatalogHandler) CreateLocal(c echo.Context) error {
	var req localReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	l := model.Local{
		PlazaID:     req.PlazaID,
		Nombre:      strings.TrimSpace(req.Nombre),
		Responsable: strings.TrimSpace(req.Responsable),
		Activo:      flag(req.Activo),
	}
	if l.Nombre == "" || l.PlazaID == 0 {
		return fail(c, http.StatusBadRequest, "nombre and plaza_id required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Catalog.CreateLocal(ctx, &l); err != nil {
		return repoError(c, err, "create local failed")
	}
	return data(c, http.StatusCreated, l)
}

// UpdateLocal handles PUT /api/locales/:id.
func (h *CatalogHandler) UpdateLocal(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req localReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	l, err := h.Catalog.GetLocal(ctx, id)
	if err != nil {
		return repoError(c, err, "load local failed")
	}
	if req.PlazaID != 0 {
		l.PlazaID = req.PlazaID
	}
	if n := strings.TrimSpace(req.Nombre); n != "" {
		l.Nombre = n
	}
	if req.Responsable != "" {
		l.Responsable = strings.TrimSpace(req.Responsable)
	}
	if req.Activo != nil {
		l.Activo = *req.Activo
	}
	if err := h.Catalog.UpdateLocal(ctx, l); err != nil {
		return repoError(c, err, "update local failed")
	}
	return data(c, http.StatusOK, l)
}

// ListTipos handles GET /api/tipos-residuos.
func (h *CatalogHandler) ListTipos(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	ts, err := h.Catalog.ListTipos(ctx)
	if err != nil {
		return repoError(c, err, "list tipos failed")
	}
	return data(c, http.StatusOK, ts)
}

// CreateTipo handles POST /api/tipos-residuos.
func (h *CatalogHandler) CreateTipo(c echo.Context) error {
	var req tipoReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	t := model.TipoResiduo{Nombre: strings.TrimSpace(req.Nombre), Unidad: strings.TrimSpace(req.Unidad), Activo: flag(req.Activo)}
	if t.Nombre == "" {
		return fail(c, http.StatusBadRequest, "nombre required")
	}
	if t.Unidad == "" {
		t.Unidad = "kg"
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Catalog.CreateTipo(ctx, &t); err != nil {
		return repoError(c, err, "create tipo failed")
	}
	return data(c, http.StatusCreated, t)
}

// UpdateTipo handles PUT /api/tipos-residuos/:id.
func (h *CatalogHandler) UpdateTipo(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req tipoReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	t, err := h.Catalog.GetTipo(ctx, id)
	if err != nil {
		return repoError(c, err, "load tipo failed")
	}
	if n := strings.TrimSpace(req.Nombre); n != "" {
		t.Nombre = n
	}
	if u := strings.TrimSpace(req.Unidad); u != "" {
		t.Unidad = u
	}
	if req.Activo != nil {
		t.Activo = *req.Activo
	}
	if err := h.Catalog.UpdateTipo(ctx, t); err != nil {
		return repoError(c, err, "update tipo failed")
	}
	return data(c, http.StatusOK, t)
}
