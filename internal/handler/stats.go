package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
)

// StatsHandler serves the dashboard aggregates.  Filters are pinned to
// the caller exactly like collection listings.
type StatsHandler struct {
	scoper
	Stats *repository.StatsRepo
}

func NewStatsHandler(stats *repository.StatsRepo, users *repository.UserRepo) *StatsHandler {
	return &StatsHandler{scoper: scoper{users: users}, Stats: stats}
}

func (h *StatsHandler) Resumen(c echo.Context) error {
	_, f, ok, err := h.scopedFilter(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	r, err := h.Stats.Resumen(ctx, f)
	if err != nil {
		return repoError(c, err, "resumen failed")
	}
	return data(c, http.StatusOK, r)
}

func (h *StatsHandler) PorTipo(c echo.Context) error  { return h.series(c, h.Stats.PorTipo) }
func (h *StatsHandler) PorPlaza(c echo.Context) error { return h.series(c, h.Stats.PorPlaza) }
func (h *StatsHandler) PorLocal(c echo.Context) error { return h.series(c, h.Stats.PorLocal) }
func (h *StatsHandler) PorMes(c echo.Context) error   { return h.series(c, h.Stats.PorMes) }

func (h *StatsHandler) series(c echo.Context, fetch func(context.Context, model.RecoleccionFilter) ([]model.Serie, error)) error {
	_, f, ok, err := h.scopedFilter(c)
	if !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	s, err := fetch(ctx, f)
	if err != nil {
		return repoError(c, err, "estadisticas failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": s, "total_kg": repository.SerieTotal(s)})
}
