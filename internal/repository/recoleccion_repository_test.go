package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func date(s string) *time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return &d
}

func TestFilterClause(t *testing.T) {
	tests := []struct {
		name     string
		f        model.RecoleccionFilter
		wantCond string
		wantArgs int
	}{
		{"empty", model.RecoleccionFilter{}, "1=1", 0},
		{"plaza", model.RecoleccionFilter{PlazaID: 3}, "1=1 AND r.plaza_id = ?", 1},
		{
			"everything",
			model.RecoleccionFilter{PlazaID: 1, LocalID: 2, CapturadorID: 3, FechaDesde: date("2024-01-01"), FechaHasta: date("2024-01-31")},
			"1=1 AND r.plaza_id = ? AND r.local_id = ? AND r.capturador_id = ? AND r.fecha_recoleccion >= ? AND r.fecha_recoleccion <= ?",
			5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, args := filterClause(tt.f, "r")
			if cond != tt.wantCond {
				t.Errorf("cond = %q, want %q", cond, tt.wantCond)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %v, want %d", args, tt.wantArgs)
			}
		})
	}
}

func TestPage(t *testing.T) {
	tests := []struct{ limit, offset, wantL, wantO int }{
		{0, 0, DefaultLimit, 0},
		{10, 20, 10, 20},
		{10000, -5, MaxLimit, 0},
	}
	for _, tt := range tests {
		l, o := Page(tt.limit, tt.offset)
		if l != tt.wantL || o != tt.wantO {
			t.Errorf("Page(%d,%d) = %d,%d want %d,%d", tt.limit, tt.offset, l, o, tt.wantL, tt.wantO)
		}
	}
}

func TestRecoleccionCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecoleccionRepo(db)

	rec := &model.Recoleccion{
		Folio: "f-1", PlazaID: 1, LocalID: 2, TipoResiduoID: 3, CapturadorID: 4,
		CantidadKg: 12.5, FechaRecoleccion: *date("2024-03-05"),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recolecciones")).
		WithArgs("f-1", uint64(1), uint64(2), uint64(3), uint64(4), 12.5, "2024-03-05", "").
		WillReturnResult(sqlmock.NewResult(77, 1))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID != 77 {
		t.Errorf("ID = %d, want 77", rec.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecoleccionCreateBadReference(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecoleccionRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO recolecciones")).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "foreign key"})

	err := repo.Create(context.Background(), &model.Recoleccion{FechaRecoleccion: time.Now()})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("Create() error = %v, want ErrInvalidReference", err)
	}
}

func TestRecoleccionList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecoleccionRepo(db)
	fecha := *date("2024-03-05")
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM recolecciones r WHERE 1=1 AND r.plaza_id = ?")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.fecha_recoleccion DESC, r.id DESC LIMIT ? OFFSET ?")).
		WithArgs(uint64(2), 10, 30).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "folio", "plaza_id", "local_id", "tipo_residuo_id", "capturador_id",
			"cantidad_kg", "fecha_recoleccion", "observaciones", "created_at", "p", "l", "t",
		}).AddRow(1, "f-1", 2, 5, 3, 4, 20.25, fecha, "", created, "Plaza Norte", "Cafe 12", "Orgánico"))

	items, total, err := repo.List(context.Background(), model.RecoleccionFilter{PlazaID: 2, Limit: 10, Offset: 30})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 31 || len(items) != 1 {
		t.Fatalf("List() = %d items, total %d", len(items), total)
	}
	if items[0].LocalNombre != "Cafe 12" || items[0].CantidadKg != 20.25 {
		t.Errorf("item = %+v", items[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecoleccionGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecoleccionRepo(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.id = ?")).WithArgs(uint64(9)).WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestRecoleccionUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRecoleccionRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE recolecciones SET")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), model.Recoleccion{ID: 3, FechaRecoleccion: time.Now()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}
