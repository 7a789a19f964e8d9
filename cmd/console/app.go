package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/iliyamo/acrux-trazabilidad/internal/access"
	"github.com/iliyamo/acrux-trazabilidad/internal/client"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/session"
)

// remote is the slice of the API client the screens use.
type remote interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Logout(ctx context.Context) error
}

var (
	captureRoles   = []model.Role{model.RoleAdmin, model.RoleCapturador, model.RoleCoordinador}
	dashboardRoles = []model.Role{model.RoleAdmin, model.RoleDirector, model.RoleCoordinador}
)

type app struct {
	ctrl *session.Controller
	hub  *session.ActivityHub
	api  remote
	in   *bufio.Scanner

	mu  sync.Mutex // serializes writes from the input loop and the timeout observer
	out io.Writer
}

func newApp(ctrl *session.Controller, hub *session.ActivityHub, api remote, in io.Reader, out io.Writer) *app {
	a := &app{ctrl: ctrl, hub: hub, api: api, in: bufio.NewScanner(in), out: out}
	ctrl.OnChange(func(st session.State) {
		if st == session.StateUnauthenticated {
			a.printf("Sesión cerrada.\n")
		}
	})
	return a
}

func (a *app) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// readLine reads one line and reports it as keyboard activity.
func (a *app) readLine(prompt string) (string, bool) {
	a.printf("%s", prompt)
	if !a.in.Scan() {
		return "", false
	}
	a.hub.Emit(session.KeyDown)
	return strings.TrimSpace(a.in.Text()), true
}

func (a *app) run(ctx context.Context) error {
	a.ctrl.Start()
	if u, ok := a.ctrl.User(); ok {
		a.printf("Sesión restaurada: %s (%s)\n", u.Nombre, u.Rol)
	}
	for ctx.Err() == nil {
		if a.ctrl.State() != session.StateAuthenticated {
			if !a.login(ctx) {
				return a.in.Err()
			}
			continue
		}
		line, ok := a.readLine("> ")
		if !ok {
			return a.in.Err()
		}
		if quit := a.dispatch(ctx, line); quit {
			return nil
		}
	}
	return nil
}

func (a *app) login(ctx context.Context) bool {
	email, ok := a.readLine("Correo: ")
	if !ok {
		return false
	}
	password, ok := a.readLine("Contraseña: ")
	if !ok {
		return false
	}
	if err := a.ctrl.Login(ctx, email, password); err != nil {
		a.printf("%s\n", err)
		return true
	}
	u, _ := a.ctrl.User()
	a.printf("Bienvenido, %s. Inicio: %s\n", u.Nombre, access.Landing(u.Rol))
	return true
}

// dispatch runs one command and reports whether the console should exit.
func (a *app) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	if a.ctrl.State() != session.StateAuthenticated {
		return false
	}
	switch fields[0] {
	case "salir":
		return true
	case "logout":
		if err := a.api.Logout(ctx); err != nil && !client.IsUnauthorized(err) {
			a.printf("No se pudo cerrar la sesión en el servidor: %v\n", err)
		}
		a.ctrl.Logout()
	case "menu":
		a.menu()
	case "captura":
		a.captura(ctx, fields[1:])
	case "resumen":
		a.resumen(ctx)
	default:
		a.printf("Comandos: menu, captura <local> <tipo> <kg>, resumen, logout, salir\n")
	}
	return false
}

// gate applies the access decision for a screen and explains refusals.
func (a *app) gate(allowed []model.Role) bool {
	d := access.Decide(a.ctrl.Status(), allowed)
	switch d.Outcome {
	case access.Allow:
		return true
	case access.Denied:
		a.printf("Acceso denegado para el rol %s.\n", d.Role)
	case access.Wait:
		a.printf("Cargando…\n")
	case access.RedirectLogin:
		a.printf("Inicia sesión para continuar.\n")
	}
	return false
}

func (a *app) menu() {
	if !a.gate(nil) {
		return
	}
	u, _ := a.ctrl.User()
	section := ""
	for _, item := range access.Menu(u.Rol) {
		if item.Section != "" && item.Section != section {
			section = item.Section
			a.printf("%s\n", section)
		}
		a.printf("  %-24s %s\n", item.Label, item.Path)
	}
}

func (a *app) captura(ctx context.Context, args []string) {
	if !a.gate(captureRoles) {
		return
	}
	if len(args) != 3 {
		a.printf("Uso: captura <local_id> <tipo_residuo_id> <kg>\n")
		return
	}
	local, err1 := strconv.ParseUint(args[0], 10, 64)
	tipo, err2 := strconv.ParseUint(args[1], 10, 64)
	kg, err3 := strconv.ParseFloat(strings.ReplaceAll(args[2], ",", "."), 64)
	if err := errors.Join(err1, err2, err3); err != nil || kg <= 0 {
		a.printf("Valores inválidos.\n")
		return
	}
	var rec model.Recoleccion
	in := map[string]any{"local_id": local, "tipo_residuo_id": tipo, "cantidad_kg": kg}
	if err := a.api.Post(ctx, "/recolecciones", in, &rec); err != nil {
		a.apiFailed(err)
		return
	}
	a.printf("Registrada %s: %.2f kg (%s)\n", rec.Folio, rec.CantidadKg, rec.FechaRecoleccion.Format("02/01/2006"))
}

func (a *app) resumen(ctx context.Context) {
	if !a.gate(dashboardRoles) {
		return
	}
	var r model.Resumen
	if err := a.api.Get(ctx, "/estadisticas/resumen", nil, &r); err != nil {
		a.apiFailed(err)
		return
	}
	a.printf("Recolecciones: %d\nTotal: %.2f kg\nLocales: %d\nPlazas: %d\n",
		r.TotalRecolecciones, r.TotalKg, r.LocalesActivos, r.PlazasActivas)
}

// apiFailed reports a fetch failure.  A 401 means the server session is
// gone, so the local one is dropped too.
func (a *app) apiFailed(err error) {
	if client.IsUnauthorized(err) {
		a.ctrl.Logout()
		return
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		a.printf("Error: %s\n", apiErr.Message)
		return
	}
	a.printf("No se pudo contactar al servidor.\n")
}
