// Package report renders printable HTML documents from already-fetched
// aggregates.  Output is self-contained: styles and charts are inline and
// the page opens the print dialog once loaded.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// Filtro describes the filter a report was generated with, already
// resolved to printable names.
type Filtro struct {
	Plaza string
	Local string
	Desde string
	Hasta string
}

// Header is shared by every report.
type Header struct {
	Titulo      string
	GeneradoPor string
	GeneradoAt  time.Time
	Filtro      Filtro
}

// SummaryBundle is the input of Summary.
type SummaryBundle struct {
	Header
	Resumen  model.Resumen
	PorTipo  []model.Serie
	PorPlaza []model.Serie
	PorMes   []model.Serie
}

// LogBundle is the input of CollectionLog.
type LogBundle struct {
	Header
	Recolecciones []model.Recoleccion
	Total         int64
}

var funcs = template.FuncMap{
	"kg":    func(v float64) string { return fmt.Sprintf("%.2f kg", v) },
	"date":  func(t time.Time) string { return t.Format("02/01/2006") },
	"stamp": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	"chart": func(s []model.Serie) Chart { return NewChart(s, 640, 260) },
	"share": share,
	"rows":  func(s []model.Serie, total float64) Rows { return Rows{Series: s, Total: total} },
}

// Rows feeds the breakdown table: each serie is shown with its share of
// Total.
type Rows struct {
	Series []model.Serie
	Total  float64
}

var (
	summaryTmpl = template.Must(template.Must(template.New("base").Funcs(funcs).Parse(baseHTML)).New("body").Parse(summaryBody))
	logTmpl     = template.Must(template.Must(template.New("base").Funcs(funcs).Parse(baseHTML)).New("body").Parse(logBody))
)

// Summary renders the dashboard summary report.
func Summary(b SummaryBundle) ([]byte, error) {
	if b.Titulo == "" {
		b.Titulo = "Resumen de recolección"
	}
	return render(summaryTmpl, b)
}

// CollectionLog renders the detailed collection listing.
func CollectionLog(b LogBundle) ([]byte, error) {
	if b.Titulo == "" {
		b.Titulo = "Bitácora de recolecciones"
	}
	if b.Total < int64(len(b.Recolecciones)) {
		b.Total = int64(len(b.Recolecciones))
	}
	return render(logTmpl, struct {
		LogBundle
		TotalKg float64
	}{b, sumKg(b.Recolecciones)})
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return buf.Bytes(), nil
}

func sumKg(recs []model.Recoleccion) float64 {
	var kg float64
	for _, r := range recs {
		kg += r.CantidadKg
	}
	return kg
}

func share(part, total float64) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", part*100/total)
}
