package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
	"github.com/iliyamo/acrux-trazabilidad/internal/utils"
)

const userColumns = "id, nombre, email, password_hash, rol, plaza_id, activo, created_at, updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes password and inserts u.  u.ID is filled on success.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = normalizeEmail(u.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO usuarios (nombre, email, password_hash, rol, plaza_id, activo) VALUES (?,?,?,?,?,?)",
		u.Nombre, u.Email, hash, string(u.Rol), nullID(u.PlazaID), u.Activo)
	if err != nil {
		if err = translate(err); errors.Is(err, ErrConflict) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM usuarios WHERE email=? LIMIT 1", normalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM usuarios WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM usuarios ORDER BY nombre, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update replaces the editable profile fields of a user.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE usuarios SET nombre=?, email=?, rol=?, plaza_id=?, activo=? WHERE id=?",
		u.Nombre, normalizeEmail(u.Email), string(u.Rol), nullID(u.PlazaID), u.Activo, u.ID)
	if err != nil {
		if err = translate(err); errors.Is(err, ErrConflict) {
			return ErrEmailExists
		}
		return err
	}
	return requireAffected(res)
}

// SetPassword replaces the password hash of a user.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE usuarios SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (model.User, error) {
	var (
		u     model.User
		rol   string
		plaza sql.NullInt64
	)
	err := s.Scan(&u.ID, &u.Nombre, &u.Email, &u.PasswordHash, &rol, &plaza, &u.Activo, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.Rol = model.Role(rol)
	if plaza.Valid {
		id := uint64(plaza.Int64)
		u.PlazaID = &id
	}
	return u, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func nullID(id *uint64) any {
	if id == nil || *id == 0 {
		return nil
	}
	return *id
}

// requireAffected turns a zero-row UPDATE into ErrNotFound.  The DSN sets
// clientFoundRows so unchanged rows still count as affected.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
