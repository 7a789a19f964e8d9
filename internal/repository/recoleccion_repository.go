package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// RecoleccionRepo reads and writes waste-collection records.
type RecoleccionRepo struct {
	db *sql.DB
}

func NewRecoleccionRepo(db *sql.DB) *RecoleccionRepo { return &RecoleccionRepo{db: db} }

// Create inserts rec.  The caller assigns the folio.
func (r *RecoleccionRepo) Create(ctx context.Context, rec *model.Recoleccion) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recolecciones
		   (folio, plaza_id, local_id, tipo_residuo_id, capturador_id, cantidad_kg, fecha_recoleccion, observaciones)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Folio, rec.PlazaID, rec.LocalID, rec.TipoResiduoID, rec.CapturadorID,
		rec.CantidadKg, rec.FechaRecoleccion.Format(time.DateOnly), rec.Observaciones)
	if err != nil {
		return translate(err)
	}
	return setID(res, &rec.ID)
}

const recoleccionSelect = `SELECT r.id, r.folio, r.plaza_id, r.local_id, r.tipo_residuo_id, r.capturador_id,
       r.cantidad_kg, r.fecha_recoleccion, r.observaciones, r.created_at,
       p.nombre, l.nombre, t.nombre
  FROM recolecciones r
  JOIN plazas p ON p.id = r.plaza_id
  JOIN locales l ON l.id = r.local_id
  JOIN tipos_residuos t ON t.id = r.tipo_residuo_id`

// GetByID fetches one record with joined names.
func (r *RecoleccionRepo) GetByID(ctx context.Context, id uint64) (model.Recoleccion, error) {
	rec, err := scanRecoleccion(r.db.QueryRowContext(ctx, recoleccionSelect+" WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recoleccion{}, ErrNotFound
	}
	return rec, err
}

// List returns one page of records matching f, newest first, and the
// total number of matches.
func (r *RecoleccionRepo) List(ctx context.Context, f model.RecoleccionFilter) ([]model.Recoleccion, int64, error) {
	where, args := filterClause(f, "r")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recolecciones r WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := Page(f.Limit, f.Offset)
	q := recoleccionSelect + " WHERE " + where + " ORDER BY r.fecha_recoleccion DESC, r.id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Recoleccion{}
	for rows.Next() {
		rec, err := scanRecoleccion(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// Update corrects the measured fields of a record.  Plaza, local and
// capturador are fixed once captured.
func (r *RecoleccionRepo) Update(ctx context.Context, rec model.Recoleccion) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recolecciones SET tipo_residuo_id = ?, cantidad_kg = ?, fecha_recoleccion = ?, observaciones = ?
		 WHERE id = ?`,
		rec.TipoResiduoID, rec.CantidadKg, rec.FechaRecoleccion.Format(time.DateOnly), rec.Observaciones, rec.ID)
	if err != nil {
		return translate(err)
	}
	return requireAffected(res)
}

// Page clamps pagination parameters.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// filterClause renders f as a WHERE condition over the recolecciones
// table aliased as alias.  It never returns an empty condition.
func filterClause(f model.RecoleccionFilter, alias string) (string, []any) {
	col := func(c string) string { return alias + "." + c }
	conds := []string{"1=1"}
	var args []any
	if f.PlazaID != 0 {
		conds = append(conds, col("plaza_id")+" = ?")
		args = append(args, f.PlazaID)
	}
	if f.LocalID != 0 {
		conds = append(conds, col("local_id")+" = ?")
		args = append(args, f.LocalID)
	}
	if f.CapturadorID != 0 {
		conds = append(conds, col("capturador_id")+" = ?")
		args = append(args, f.CapturadorID)
	}
	if f.FechaDesde != nil {
		conds = append(conds, col("fecha_recoleccion")+" >= ?")
		args = append(args, f.FechaDesde.Format(time.DateOnly))
	}
	if f.FechaHasta != nil {
		conds = append(conds, col("fecha_recoleccion")+" <= ?")
		args = append(args, f.FechaHasta.Format(time.DateOnly))
	}
	return strings.Join(conds, " AND "), args
}

func scanRecoleccion(s scanner) (model.Recoleccion, error) {
	var rec model.Recoleccion
	err := s.Scan(&rec.ID, &rec.Folio, &rec.PlazaID, &rec.LocalID, &rec.TipoResiduoID, &rec.CapturadorID,
		&rec.CantidadKg, &rec.FechaRecoleccion, &rec.Observaciones, &rec.CreatedAt,
		&rec.PlazaNombre, &rec.LocalNombre, &rec.TipoResiduoNombre)
	return rec, err
}
