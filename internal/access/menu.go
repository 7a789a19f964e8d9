package access

import "github.com/iliyamo/acrux-trazabilidad/internal/model"

// MenuItem is one navigation entry.  Section groups entries under a
// heading in the desktop sidebar; the mobile drawer ignores it.
type MenuItem struct {
	Path    string `json:"path"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Section string `json:"section,omitempty"`
}

// Layout is the chrome the dashboard renders around a page.
type Layout string

const (
	LayoutDesktop Layout = "desktop"
	LayoutMobile  Layout = "mobile"
)

// MobileBreakpoint is the first viewport width that gets the desktop layout.
const MobileBreakpoint = 768

// ChooseLayout picks the chrome for a viewport width in CSS pixels.
// Unknown widths (zero or negative) fall back to desktop.
func ChooseLayout(width int) Layout {
	if width > 0 && width < MobileBreakpoint {
		return LayoutMobile
	}
	return LayoutDesktop
}

var menus = map[model.Role][]MenuItem{
	model.RoleAdmin: {
		{Path: "/admin", Label: "Inicio", Icon: "home"},
		{Path: "/admin/usuarios", Label: "Usuarios", Icon: "users", Section: "Administración"},
		{Path: "/admin/plazas", Label: "Plazas", Icon: "building", Section: "Catálogos"},
		{Path: "/admin/locales", Label: "Locales", Icon: "store", Section: "Catálogos"},
		{Path: "/admin/tipos-residuos", Label: "Tipos de residuo", Icon: "recycle", Section: "Catálogos"},
		{Path: "/admin/recolecciones", Label: "Recolecciones", Icon: "truck", Section: "Operación"},
		{Path: "/admin/reportes", Label: "Reportes", Icon: "chart", Section: "Operación"},
	},
	model.RoleDirector: {
		{Path: "/director", Label: "Inicio", Icon: "home"},
		{Path: "/director/estadisticas", Label: "Estadísticas", Icon: "chart", Section: "Análisis"},
		{Path: "/director/reportes", Label: "Reportes", Icon: "file", Section: "Análisis"},
	},
	model.RoleCoordinador: {
		{Path: "/coordinador", Label: "Inicio", Icon: "home"},
		{Path: "/coordinador/recolecciones", Label: "Recolecciones", Icon: "truck", Section: "Operación"},
		{Path: "/coordinador/estadisticas", Label: "Estadísticas", Icon: "chart", Section: "Análisis"},
		{Path: "/coordinador/reportes", Label: "Reportes", Icon: "file", Section: "Análisis"},
	},
	model.RoleCapturador: {
		{Path: "/capturador", Label: "Inicio", Icon: "home"},
		{Path: "/capturador/captura", Label: "Nueva recolección", Icon: "plus", Section: "Captura"},
		{Path: "/capturador/historial", Label: "Mis recolecciones", Icon: "list", Section: "Captura"},
	},
}

// Menu returns a copy of the navigation entries for r.  Unknown roles
// get an empty menu.
func Menu(r model.Role) []MenuItem {
	items := menus[r]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}
