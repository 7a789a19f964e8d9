// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/acrux-trazabilidad/internal/handler"
	"github.com/iliyamo/acrux-trazabilidad/internal/middleware"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// Handlers groups everything the API routes need.
type Handlers struct {
	Health        echo.HandlerFunc
	Auth          *handler.AuthHandler
	Catalog       *handler.CatalogHandler
	Usuarios      *handler.UsuarioHandler
	Recolecciones *handler.RecoleccionHandler
	Stats         *handler.StatsHandler
	Reports       *handler.ReportHandler
}

// Middleware holds the shared middleware instances.  Any field may be nil.
type Middleware struct {
	Auth       echo.MiddlewareFunc // JWTAuth, required
	RateLimit  echo.MiddlewareFunc // general API bucket
	LoginLimit echo.MiddlewareFunc // per-IP login bucket
	Cache      echo.MiddlewareFunc // statistics response cache
}

var (
	admin        = []model.Role{model.RoleAdmin}
	capture      = []model.Role{model.RoleAdmin, model.RoleCapturador, model.RoleCoordinador}
	readCaptures = []model.Role{model.RoleAdmin, model.RoleDirector, model.RoleCoordinador, model.RoleCapturador}
	editCaptures = []model.Role{model.RoleAdmin, model.RoleCoordinador}
	dashboards   = []model.Role{model.RoleAdmin, model.RoleDirector, model.RoleCoordinador}
)

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := mws[:0:0]
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Register mounts /healthz and the /api tree.
func Register(e *echo.Echo, h Handlers, mw Middleware) {
	if h.Health != nil {
		e.GET("/healthz", h.Health)
	}

	api := e.Group("/api")
	api.POST("/auth/login", h.Auth.Login, chain(mw.LoginLimit)...)

	authed := api.Group("", chain(mw.Auth, mw.RateLimit)...)
	anyRole := middleware.RequireRole()
	authed.POST("/auth/logout", h.Auth.Logout, anyRole)
	authed.GET("/auth/me", h.Auth.Me, anyRole)
	authed.GET("/navegacion", handler.Navegacion, anyRole)

	authed.GET("/plazas", h.Catalog.ListPlazas, anyRole)
	authed.GET("/locales", h.Catalog.ListLocales, anyRole)
	authed.GET("/tipos-residuos", h.Catalog.ListTipos, anyRole)

	adm := authed.Group("", middleware.RequireRole(admin...))
	adm.POST("/plazas", h.Catalog.CreatePlaza)
	adm.PUT("/plazas/:id", h.Catalog.UpdatePlaza)
	adm.POST("/locales", h.Catalog.CreateLocal)
	adm.PUT("/locales/:id", h.Catalog.UpdateLocal)
	adm.POST("/tipos-residuos", h.Catalog.CreateTipo)
	adm.PUT("/tipos-residuos/:id", h.Catalog.UpdateTipo)
	adm.GET("/usuarios", h.Usuarios.List)
	adm.GET("/usuarios/:id", h.Usuarios.Get)
	adm.POST("/usuarios", h.Usuarios.Create)
	adm.PUT("/usuarios/:id", h.Usuarios.Update)

	authed.POST("/recolecciones", h.Recolecciones.Create, middleware.RequireRole(capture...))
	authed.GET("/recolecciones", h.Recolecciones.List, middleware.RequireRole(readCaptures...))
	authed.GET("/recolecciones/:id", h.Recolecciones.Get, middleware.RequireRole(readCaptures...))
	authed.PUT("/recolecciones/:id", h.Recolecciones.Update, middleware.RequireRole(editCaptures...))

	stats := authed.Group("/estadisticas", chain(middleware.RequireRole(dashboards...), mw.Cache)...)
	stats.GET("/resumen", h.Stats.Resumen)
	stats.GET("/por-tipo", h.Stats.PorTipo)
	stats.GET("/por-plaza", h.Stats.PorPlaza)
	stats.GET("/por-local", h.Stats.PorLocal)
	stats.GET("/por-mes", h.Stats.PorMes)

	reports := authed.Group("/reportes", middleware.RequireRole(dashboards...))
	reports.GET("/resumen", h.Reports.Resumen)
	reports.GET("/recolecciones", h.Reports.Recolecciones)
}
