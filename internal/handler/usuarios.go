package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/acrux-trazabilidad/internal/logger"
	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/repository"
	"github.com/iliyamo/acrux-trazabilidad/internal/utils"
)

// UsuarioHandler is the ADMIN user management API.
type UsuarioHandler struct {
	Users      *repository.UserRepo
	Sessions   *repository.SessionRepo
	BcryptCost int
}

func NewUsuarioHandler(u *repository.UserRepo, s *repository.SessionRepo, bcryptCost int) *UsuarioHandler {
	return &UsuarioHandler{Users: u, Sessions: s, BcryptCost: bcryptCost}
}

type usuarioReq struct {
	Nombre   string  `json:"nombre"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Rol      string  `json:"rol"`
	PlazaID  *uint64 `json:"plaza_id"`
	Activo   *bool   `json:"activo"`
}

type usuarioResp struct {
	ID        uint64     `json:"id"`
	Nombre    string     `json:"nombre"`
	Email     string     `json:"email"`
	Rol       model.Role `json:"rol"`
	PlazaID   *uint64    `json:"plaza_id"`
	Activo    bool       `json:"activo"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUsuarioResp(u model.User) usuarioResp {
	return usuarioResp{ID: u.ID, Nombre: u.Nombre, Email: u.Email, Rol: u.Rol, PlazaID: u.PlazaID, Activo: u.Activo, CreatedAt: u.CreatedAt}
}

// List handles GET /api/usuarios.
func (h *UsuarioHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	us, err := h.Users.List(ctx)
	if err != nil {
		return repoError(c, err, "list users failed")
	}
	out := make([]usuarioResp, 0, len(us))
	for _, u := range us {
		out = append(out, toUsuarioResp(u))
	}
	return data(c, http.StatusOK, out)
}

// Get handles GET /api/usuarios/:id.
func (h *UsuarioHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "load user failed")
	}
	return data(c, http.StatusOK, toUsuarioResp(u))
}

// Create handles POST /api/usuarios.
func (h *UsuarioHandler) Create(c echo.Context) error {
	var req usuarioReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	rol, ok := model.ParseRole(req.Rol)
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid rol")
	}
	u := model.User{
		Nombre:  strings.TrimSpace(req.Nombre),
		Email:   strings.TrimSpace(req.Email),
		Rol:     rol,
		PlazaID: req.PlazaID,
		Activo:  flag(req.Activo),
	}
	if u.Nombre == "" || u.Email == "" {
		return fail(c, http.StatusBadRequest, "nombre/email required")
	}
	if !utils.PasswordAcceptable(req.Password) {
		return fail(c, http.StatusBadRequest, "password must be 8 to 72 characters")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Users.Create(ctx, &u, req.Password, h.BcryptCost); err != nil {
		return repoError(c, err, "create user failed")
	}
	return data(c, http.StatusCreated, toUsuarioResp(u))
}

// Update handles PUT /api/usuarios/:id.  Deactivating a user or changing
// their role ends every open session of that user.
func (h *UsuarioHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req usuarioReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "load user failed")
	}
	// Keep the stored values to detect changes that must end sessions.
	before := u
	// Empty fields leave the stored value alone.
	if n := strings.TrimSpace(req.Nombre); n != "" {
		u.Nombre = n
	}
	if e := strings.TrimSpace(req.Email); e != "" {
		u.Email = e
	}
	if req.Rol != "" {
		rol, ok := model.ParseRole(req.Rol)
		if !ok {
			return fail(c, http.StatusBadRequest, "invalid rol")
		}
		u.Rol = rol
	}
	if req.PlazaID != nil {
		// plaza_id 0 removes the assignment.
		u.PlazaID = req.PlazaID
		if *req.PlazaID == 0 {
			u.PlazaID = nil
		}
	}
	if req.Activo != nil {
		u.Activo = *req.Activo
	}
	if req.Password != "" && !utils.PasswordAcceptable(req.Password) {
		return fail(c, http.StatusBadRequest, "password must be 8 to 72 characters")
	}

	if err := h.Users.Update(ctx, u); err != nil {
		return repoError(c, err, "update user failed")
	}
	if req.Password != "" {
		if err := h.Users.SetPassword(ctx, u.ID, req.Password, h.BcryptCost); err != nil {
			return repoError(c, err, "update password failed")
		}
	}
	// Role change, deactivation and password reset log the user out
	// everywhere.  A Redis failure here is logged and the update stands.
	if h.Sessions != nil && (u.Rol != before.Rol || (before.Activo && !u.Activo) || req.Password != "") {
		if err := h.Sessions.DeleteAllForUser(ctx, u.ID); err != nil {
			logger.Logger.WithError(err).WithField("user_id", u.ID).Warn("could not end user sessions")
		}
	}
	return data(c, http.StatusOK, toUsuarioResp(u))
}
