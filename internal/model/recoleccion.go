package model

import "time"

// Recoleccion records a single waste pickup at a local.  Folio has the
// form REC-YYYYMMDD-XXXXXXXX and is printed on the physical manifest so
// paper and digital records can be matched.
type Recoleccion struct {
	ID               uint64    `json:"id"`
	Folio            string    `json:"folio"`
	PlazaID          uint64    `json:"plaza_id"`
	LocalID          uint64    `json:"local_id"`
	TipoResiduoID    uint64    `json:"tipo_residuo_id"`
	CapturadorID     uint64    `json:"capturador_id"`
	CantidadKg       float64   `json:"cantidad_kg"`
	FechaRecoleccion time.Time `json:"fecha_recoleccion"`
	Observaciones    string    `json:"observaciones,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	// Joined names, filled by list queries.
	PlazaNombre       string `json:"plaza_nombre,omitempty"`
	LocalNombre       string `json:"local_nombre,omitempty"`
	TipoResiduoNombre string `json:"tipo_residuo_nombre,omitempty"`
}

// RecoleccionFilter narrows list and statistics queries.  Zero values
// mean "no filter".  FechaHasta is inclusive.
type RecoleccionFilter struct {
	PlazaID      uint64
	LocalID      uint64
	CapturadorID uint64
	FechaDesde   *time.Time
	FechaHasta   *time.Time
	Limit        int
	Offset       int
}
