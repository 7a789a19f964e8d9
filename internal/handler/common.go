// Package handler implements the Echo HTTP handlers of the trazabilidad
// API.  Success bodies are wrapped as {"data": ...}; failures are
// {"error": "..."}.
package handler

import (
	"context"  // timeouts for DB calls
	"errors"   // sentinel comparison
	"net/http" // HTTP status codes
	"strconv"  // path and query parsing
	"strings"  // input trimming
	"time"     // date filters and timeouts

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/acrux-trazabilidad/internal/logger"     // process-wide logger
	"github.com/iliyamo/acrux-trazabilidad/internal/middleware" // identity stored by JWTAuth
	"github.com/iliyamo/acrux-trazabilidad/internal/model"      // filters and users
	"github.com/iliyamo/acrux-trazabilidad/internal/repository" // sentinels and paging
)

// dbTimeout bounds every database round trip made by a handler.
const dbTimeout = 5 * time.Second

var errNoUser = errors.New("invalid user_id in context")

// dbCtx derives a dbTimeout context from the request.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID returns the authenticated user id or errNoUser.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errNoUser
	}
	return id, nil
}

// data writes the success envelope.
func data(c echo.Context, status int, v any) error {
	return c.JSON(status, echo.Map{"data": v})
}

// fail writes the error envelope.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// repoError maps repository sentinels to HTTP errors.  Anything else is
// logged and reported as a 500 with msg.
func repoError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusConflict, "email already exists")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "already exists")
	case errors.Is(err, repository.ErrInvalidReference):
		return fail(c, http.StatusBadRequest, "invalid reference")
	}
	logger.Logger.WithError(err).WithField("path", c.Path()).Error(msg)
	return fail(c, http.StatusInternalServerError, msg)
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func queryUint(c echo.Context, name string) (uint64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func queryInt(c echo.Context, name string) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// parseDate accepts YYYY-MM-DD.  An empty string yields nil.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// filterError is reported as a 400 with its message.
type filterError string

func (e filterError) Error() string { return string(e) }

// parseFilter reads the collection filter query parameters.
func parseFilter(c echo.Context) (model.RecoleccionFilter, error) {
	var f model.RecoleccionFilter
	var err error
	if f.PlazaID, err = queryUint(c, "plaza_id"); err != nil {
		return f, filterError("invalid plaza_id")
	}
	if f.LocalID, err = queryUint(c, "local_id"); err != nil {
		return f, filterError("invalid local_id")
	}
	if f.FechaDesde, err = parseDate(c.QueryParam("fecha_desde")); err != nil {
		return f, filterError("invalid fecha_desde, expected YYYY-MM-DD")
	}
	if f.FechaHasta, err = parseDate(c.QueryParam("fecha_hasta")); err != nil {
		return f, filterError("invalid fecha_hasta, expected YYYY-MM-DD")
	}
	if f.FechaDesde != nil && f.FechaHasta != nil && f.FechaHasta.Before(*f.FechaDesde) {
		return f, filterError("fecha_hasta is before fecha_desde")
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil || f.Limit < 0 {
		return f, filterError("invalid limit")
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil || f.Offset < 0 {
		return f, filterError("invalid offset")
	}
	f.Limit, f.Offset = repository.Page(f.Limit, f.Offset)
	return f, nil
}

// scoper narrows filters and checks record visibility for the caller.
type scoper struct {
	users *repository.UserRepo
}

// caller is the authenticated user as loaded from the database.
func (s scoper) caller(ctx context.Context, c echo.Context) (model.User, error) {
	uid, err := getUserID(c)
	if err != nil {
		return model.User{}, err
	}
	return s.users.GetByID(ctx, uid)
}

// pin applies per-role restrictions: a COORDINADOR assigned to a plaza
// only ever sees that plaza, and a CAPTURADOR only their own captures.
func pin(u model.User, f model.RecoleccionFilter) model.RecoleccionFilter {
	switch u.Rol {
	case model.RoleCoordinador:
		if u.PlazaID != nil {
			f.PlazaID = *u.PlazaID
		}
	case model.RoleCapturador:
		f.CapturadorID = u.ID
	}
	return f
}

// canSee reports whether u may read rec.
func canSee(u model.User, rec model.Recoleccion) bool {
	switch u.Rol {
	case model.RoleCapturador:
		return rec.CapturadorID == u.ID
	case model.RoleCoordinador:
		return u.PlazaID == nil || *u.PlazaID == rec.PlazaID
	}
	return true
}

// scopedFilter parses the query and pins it to the caller.  It writes the
// error response itself and returns ok=false when the request must stop.
func (s scoper) scopedFilter(c echo.Context) (model.User, model.RecoleccionFilter, bool, error) {
	f, err := parseFilter(c)
	if err != nil {
		return model.User{}, f, false, fail(c, http.StatusBadRequest, err.Error())
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := s.caller(ctx, c)
	if err != nil {
		if errors.Is(err, errNoUser) || errors.Is(err, repository.ErrNotFound) {
			return u, f, false, fail(c, http.StatusUnauthorized, "unauthorized")
		}
		return u, f, false, repoError(c, err, "load user failed")
	}
	return u, pin(u, f), true, nil
}
