package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/report"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
)

// ReportHandler fetches report bundles and renders them as printable HTML.
type ReportHandler struct {
	scoper
	Stats   *repository.StatsRepo
	Recs    *repository.RecoleccionRepo
	Catalog *repository.CatalogRepo

	now func() time.Time
}

func NewReportHandler(stats *repository.StatsRepo, recs *repository.RecoleccionRepo, catalog *repository.CatalogRepo, users *repository.UserRepo) *ReportHandler {
	return &ReportHandler{scoper: scoper{users: users}, Stats: stats, Recs: recs, Catalog: catalog, now: time.Now}
}

// Resumen handles GET /api/reportes/resumen.
func (h *ReportHandler) Resumen(c echo.Context) error {
	u, f, ok, err := h.scopedFilter(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	b := report.SummaryBundle{Header: h.header(ctx, u, f)}
	if b.Resumen, err = h.Stats.Resumen(ctx, f); err != nil {
		return repoError(c, err, "report failed")
	}
	if b.PorTipo, err = h.Stats.PorTipo(ctx, f); err != nil {
		return repoError(c, err, "report failed")
	}
	if b.PorPlaza, err = h.Stats.PorPlaza(ctx, f); err != nil {
		return repoError(c, err, "report failed")
	}
	if b.PorMes, err = h.Stats.PorMes(ctx, f); err != nil {
		return repoError(c, err, "report failed")
	}
	out, err := report.Summary(b)
	if err != nil {
		return repoError(c, err, "render failed")
	}
	return c.HTMLBlob(http.StatusOK, out)
}

// Recolecciones handles GET /api/reportes/recolecciones.  The listing is
// capped at repository.MaxLimit rows; the header reports the full count.
func (h *ReportHandler) Recolecciones(c echo.Context) error {
	u, f, ok, err := h.scopedFilter(c)
	if !ok {
		return err
	}
	if c.QueryParam("limit") == "" {
		f.Limit = repository.MaxLimit
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, total, err := h.Recs.List(ctx, f)
	if err != nil {
		return repoError(c, err, "report failed")
	}
	out, err := report.CollectionLog(report.LogBundle{Header: h.header(ctx, u, f), Recolecciones: items, Total: total})
	if err != nil {
		return repoError(c, err, "render failed")
	}
	return c.HTMLBlob(http.StatusOK, out)
}

// header resolves filter ids to names.  Lookup failures leave the raw
// field empty rather than failing the report.
func (h *ReportHandler) header(ctx context.Context, u model.User, f model.RecoleccionFilter) report.Header {
	hd := report.Header{GeneradoPor: u.Nombre, GeneradoAt: h.now()}
	if f.PlazaID != 0 {
		if p, err := h.Catalog.GetPlaza(ctx, f.PlazaID); err == nil {
			hd.Filtro.Plaza = p.Nombre
		} else {
			logger.Logger.WithError(err).Debug("report: plaza lookup failed")
		}
	}
	if f.LocalID != 0 {
		if l, err := h.Catalog.GetLocal(ctx, f.LocalID); err == nil {
			hd.Filtro.Local = l.Nombre
		}
	}
	if f.FechaDesde != nil {
		hd.Filtro.Desde = f.FechaDesde.Format("02/01/2006")
	}
	if f.FechaHasta != nil {
		hd.Filtro.Hasta = f.FechaHasta.Format("02/01/2006")
	}
	return hd
}
