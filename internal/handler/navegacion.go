package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/acrux-trazabilidad/internal/access"
	"github.com/iliyamo/acrux-trazabilidad/internal/middleware"
)

// Navegacion returns the landing path, layout and menu for the caller's
// role.  The optional width query parameter is the viewport width in CSS
// pixels.
func Navegacion(c echo.Context) error {
	width, err := queryInt(c, "width")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid width")
	}
	rol := middleware.Role(c)
	return data(c, http.StatusOK, echo.Map{
		"landing": access.Landing(rol),
		"layout":  access.ChooseLayout(width),
		"items":   access.Menu(rol),
	})
}
