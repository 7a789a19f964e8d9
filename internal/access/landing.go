package access

import "github.com/iliyamo/acrux-trazabilidad/internal/model"

// LoginPath is the login entry point.
const LoginPath = "/login"

var landings = map[model.Role]string{
	model.RoleAdmin:       "/admin",
	model.RoleDirector:    "/director",
	model.RoleCoordinador: "/coordinador",
	model.RoleCapturador:  "/capturador",
}

// Landing returns the default route of r, or LoginPath for anything that
// is not a known role.
func Landing(r model.Role) string {
	if p, ok := landings[r]; ok {
		return p
	}
	return LoginPath
}
