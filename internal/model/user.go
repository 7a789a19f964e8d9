package model

import "time"

// User represents an application user record as stored in the
// `usuarios` table.  PasswordHash never leaves the repository and
// handler layers; API responses use UserRecord instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Nombre       – display name shown in the dashboard header.
//  Email        – unique, lower-cased login address.
//  PasswordHash – bcrypt hashed password.
//  Rol          – one of ADMIN, DIRECTOR, COORDINADOR, CAPTURADOR.
//  PlazaID      – plaza a COORDINADOR or CAPTURADOR is assigned to (nullable).
//  Activo       – inactive users cannot log in.
type User struct {
	ID           uint64    // usuarios.id
	Nombre       string    // usuarios.nombre
	Email        string    // usuarios.email
	PasswordHash string    // usuarios.password_hash
	Rol          Role      // usuarios.rol
	PlazaID      *uint64   // usuarios.plaza_id
	Activo       bool      // usuarios.activo
	CreatedAt    time.Time // usuarios.created_at
	UpdatedAt    time.Time // usuarios.updated_at
}

// UserRecord is the public view of a user carried inside a session.
type UserRecord struct {
	ID      uint64  `json:"id"`
	Nombre  string  `json:"nombre"`
	Email   string  `json:"email,omitempty"`
	Rol     Role    `json:"rol"`
	PlazaID *uint64 `json:"plaza_id,omitempty"`
}

// Record strips persistence-only fields from u.
func (u User) Record() UserRecord {
	return UserRecord{ID: u.ID, Nombre: u.Nombre, Email: u.Email, Rol: u.Rol, PlazaID: u.PlazaID}
}
