package model

// Resumen is the headline block of every dashboard.
type Resumen struct {
	TotalRecolecciones int64   `json:"total_recolecciones"`
	TotalKg            float64 `json:"total_kg"`
	LocalesActivos     int64   `json:"locales_activos"`
	PlazasActivas      int64   `json:"plazas_activas"`
}

// Serie is one bar of a breakdown chart.  Clave is the grouping key
// (an id or a YYYY-MM month) and Etiqueta its printable label.
type Serie struct {
	Clave         string  `json:"clave"`
	Etiqueta      string  `json:"etiqueta"`
	TotalKg       float64 `json:"total_kg"`
	Recolecciones int64   `json:"recolecciones"`
}
