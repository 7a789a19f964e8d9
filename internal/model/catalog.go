package model

import "time"

// Plaza is a shopping centre or site where collections happen.
type Plaza struct {
	ID        uint64    `json:"id"`
	Nombre    string    `json:"nombre"`
	Ciudad    string    `json:"ciudad"`
	Activa    bool      `json:"activa"`
	CreatedAt time.Time `json:"created_at"`
}

// Local is a tenant inside a plaza that generates waste.
type Local struct {
	ID          uint64    `json:"id"`
	PlazaID     uint64    `json:"plaza_id"`
	Nombre      string    `json:"nombre"`
	Responsable string    `json:"responsable"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
}

// TipoResiduo is a waste category (organic, cardboard, PET...).
type TipoResiduo struct {
	ID        uint64    `json:"id"`
	Nombre    string    `json:"nombre"`
	Unidad    string    `json:"unidad"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}
