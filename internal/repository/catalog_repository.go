// This file holds the three catalogs every capture form depends on:
// plazas, the locales inside them and the waste types.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// CatalogRepo encapsulates queries for plazas, locales and tipos_residuos.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo with the provided DB handle.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ---- Plazas ----

// ListPlazas returns plazas ordered by name.  When onlyActive is set
// inactive plazas are skipped.
func (r *CatalogRepo) ListPlazas(ctx context.Context, onlyActive bool) ([]model.Plaza, error) {
	q := "SELECT id, nombre, ciudad, activa, created_at FROM plazas"
	if onlyActive {
		q += " WHERE activa = 1"
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY nombre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Plaza{}
	for rows.Next() {
		var p model.Plaza
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Ciudad, &p.Activa, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlaza fetches one plaza or ErrNotFound.
func (r *CatalogRepo) GetPlaza(ctx context.Context, id uint64) (model.Plaza, error) {
	var p model.Plaza
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, ciudad, activa, created_at FROM plazas WHERE id = ?", id,
	).Scan(&p.ID, &p.Nombre, &p.Ciudad, &p.Activa, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plaza{}, ErrNotFound
	}
	return p, err
}

// CreatePlaza inserts p and fills its ID.
func (r *CatalogRepo) CreatePlaza(ctx context.Context, p *model.Plaza) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO plazas (nombre, ciudad, activa) VALUES (?, ?, ?)", p.Nombre, p.Ciudad, p.Activa)
	if err != nil {
		return translate(err)
	}
	return setID(res, &p.ID)
}

// UpdatePlaza replaces name, city and active flag.
func (r *CatalogRepo) UpdatePlaza(ctx context.Context, p model.Plaza) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE plazas SET nombre = ?, ciudad = ?, activa = ? WHERE id = ?", p.Nombre, p.Ciudad, p.Activa, p.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// ---- Locales ----

// ListLocales returns locales, optionally restricted to one plaza.
func (r *CatalogRepo) ListLocales(ctx context.Context, plazaID uint64) ([]model.Local, error) {
	q := "SELECT id, plaza_id, nombre, responsable, activo, created_at FROM locales"
	var args []any
	if plazaID != 0 {
		q += " WHERE plaza_id = ?"
		args = append(args, plazaID)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY nombre", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Local{}
	for rows.Next() {
		var l model.Local
		if err := rows.Scan(&l.ID, &l.PlazaID, &l.Nombre, &l.Responsable, &l.Activo, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetLocal fetches one local or ErrNotFound.
func (r *CatalogRepo) GetLocal(ctx context.Context, id uint64) (model.Local, error) {
	var l model.Local
	err := r.db.QueryRowContext(ctx,
		"SELECT id, plaza_id, nombre, responsable, activo, created_at FROM locales WHERE id = ?", id,
	).Scan(&l.ID, &l.PlazaID, &l.Nombre, &l.Responsable, &l.Activo, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Local{}, ErrNotFound
	}
	return l, err
}

// CreateLocal inserts l and fills its ID.
func (r *CatalogRepo) CreateLocal(ctx context.Context, l *model.Local) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO locales (plaza_id, nombre, responsable, activo) VALUES (?, ?, ?, ?)",
		l.PlazaID, l.Nombre, l.Responsable, l.Activo)
	if err != nil {
		return translate(err)
	}
	return setID(res, &l.ID)
}

// UpdateLocal replaces every editable column of l.
func (r *CatalogRepo) UpdateLocal(ctx context.Context, l model.Local) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE locales SET plaza_id = ?, nombre = ?, responsable = ?, activo = ? WHERE id = ?",
		l.PlazaID, l.Nombre, l.Responsable, l.Activo, l.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// ---- Tipos de residuo ----

// ListTipos returns waste types ordered by name.
func (r *CatalogRepo) ListTipos(ctx context.Context) ([]model.TipoResiduo, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nombre, unidad, activo, created_at FROM tipos_residuos ORDER BY nombre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TipoResiduo{}
	for rows.Next() {
		var t model.TipoResiduo
		if err := rows.Scan(&t.ID, &t.Nombre, &t.Unidad, &t.Activo, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTipo fetches one waste type or ErrNotFound.
func (r *CatalogRepo) GetTipo(ctx context.Context, id uint64) (model.TipoResiduo, error) {
	var t model.TipoResiduo
	err := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, unidad, activo, created_at FROM tipos_residuos WHERE id = ?", id,
	).Scan(&t.ID, &t.Nombre, &t.Unidad, &t.Activo, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TipoResiduo{}, ErrNotFound
	}
	return t, err
}

// CreateTipo inserts t and fills its ID.
func (r *CatalogRepo) CreateTipo(ctx context.Context, t *model.TipoResiduo) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tipos_residuos (nombre, unidad, activo) VALUES (?, ?, ?)", t.Nombre, t.Unidad, t.Activo)
	if err != nil {
		return translate(err)
	}
	return setID(res, &t.ID)
}

// UpdateTipo replaces name, unit and active flag.
func (r *CatalogRepo) UpdateTipo(ctx context.Context, t model.TipoResiduo) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tipos_residuos SET nombre = ?, unidad = ?, activo = ? WHERE id = ?", t.Nombre, t.Unidad, t.Activo, t.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

func setID(res sql.Result, dst *uint64) error {
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	*dst = uint64(id)
	return nil
}
