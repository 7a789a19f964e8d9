// Package queue defines message payloads exchanged over the message broker.
package queue

// RecoleccionesQueue is the durable queue collection events are routed to.
const RecoleccionesQueue = "recolecciones.registradas"

// RecoleccionRegistradaEvent is published after a collection record is
// stored.  It carries the names downstream consumers print so they never
// need to query the primary database.
type RecoleccionRegistradaEvent struct {
	RecoleccionID uint64  `json:"recoleccion_id"`
	Folio         string  `json:"folio"`
	PlazaID       uint64  `json:"plaza_id"`
	PlazaNombre   string  `json:"plaza_nombre"`
	LocalID       uint64  `json:"local_id"`
	LocalNombre   string  `json:"local_nombre"`
	TipoResiduo   string  `json:"tipo_residuo"`
	CantidadKg    float64 `json:"cantidad_kg"`
	Fecha         string  `json:"fecha"`
	CapturadorID  uint64  `json:"capturador_id"`
	RegistradaAt  string  `json:"registrada_at"`
}
