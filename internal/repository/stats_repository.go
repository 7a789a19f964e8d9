package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// StatsRepo computes the aggregates shown on dashboards and reports.
// Every query honours the same filter as RecoleccionRepo.List; Limit and
// Offset are ignored.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Resumen returns the headline totals.  Active locales and plazas are
// those with at least one collection in the filtered range.
func (r *StatsRepo) Resumen(ctx context.Context, f model.RecoleccionFilter) (model.Resumen, error) {
	where, args := filterClause(f, "r")
	var out model.Resumen
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(r.cantidad_kg), 0), COUNT(DISTINCT r.local_id), COUNT(DISTINCT r.plaza_id)
		   FROM recolecciones r WHERE `+where, args...,
	).Scan(&out.TotalRecolecciones, &out.TotalKg, &out.LocalesActivos, &out.PlazasActivas)
	return out, err
}

// PorTipo groups totals by waste type, heaviest first.
func (r *StatsRepo) PorTipo(ctx context.Context, f model.RecoleccionFilter) ([]model.Serie, error) {
	return r.grouped(ctx, f, "t.id", "t.nombre", "JOIN tipos_residuos t ON t.id = r.tipo_residuo_id", "total_kg DESC")
}

// PorPlaza groups totals by plaza, heaviest first.
func (r *StatsRepo) PorPlaza(ctx context.Context, f model.RecoleccionFilter) ([]model.Serie, error) {
	return r.grouped(ctx, f, "p.id", "p.nombre", "JOIN plazas p ON p.id = r.plaza_id", "total_kg DESC")
}

// PorLocal groups totals by local, heaviest first.
func (r *StatsRepo) PorLocal(ctx context.Context, f model.RecoleccionFilter) ([]model.Serie, error) {
	return r.grouped(ctx, f, "l.id", "l.nombre", "JOIN locales l ON l.id = r.local_id", "total_kg DESC")
}

// PorMes groups totals by calendar month in chronological order.
func (r *StatsRepo) PorMes(ctx context.Context, f model.RecoleccionFilter) ([]model.Serie, error) {
	month := "DATE_FORMAT(r.fecha_recoleccion, '%Y-%m')"
	return r.grouped(ctx, f, month, month, "", "clave ASC")
}

func (r *StatsRepo) grouped(ctx context.Context, f model.RecoleccionFilter, key, label, join, order string) ([]model.Serie, error) {
	where, args := filterClause(f, "r")
	q := "SELECT " + key + " AS clave, " + label + " AS etiqueta, COALESCE(SUM(r.cantidad_kg), 0) AS total_kg, COUNT(*)" +
		" FROM recolecciones r " + join +
		" WHERE " + where +
		" GROUP BY clave, etiqueta ORDER BY " + order
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Serie{}
	for rows.Next() {
		var s model.Serie
		if err := rows.Scan(&s.Clave, &s.Etiqueta, &s.TotalKg, &s.Recolecciones); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SerieTotal sums the kilograms of a breakdown.
func SerieTotal(series []model.Serie) float64 {
	var kg float64
	for _, s := range series {
		kg += s.TotalKg
	}
	return kg
}
