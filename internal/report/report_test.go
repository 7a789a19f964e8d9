package report

import (
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

var generated = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestSummaryRendersPrintableDocument(t *testing.T) {
	out, err := Summary(SummaryBundle{
		Header: Header{GeneradoPor: "Dirección", GeneradoAt: generated, Filtro: Filtro{Plaza: "Plaza Norte", Desde: "2025-03-01"}},
		Resumen: model.Resumen{TotalRecolecciones: 3, TotalKg: 150, LocalesActivos: 2, PlazasActivas: 1},
		PorTipo: []model.Serie{
			{Clave: "1", Etiqueta: "Orgánico", TotalKg: 100, Recolecciones: 2},
			{Clave: "2", Etiqueta: "PET", TotalKg: 50, Recolecciones: 1},
		},
		PorPlaza: []model.Serie{{Clave: "1", Etiqueta: "Plaza Norte", TotalKg: 150, Recolecciones: 3}},
	})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Resumen de recolección",
		"14/03/2025 09:30",
		"Plaza: Plaza Norte",
		"150.00 kg",
		"66.7%",
		"<svg",
		"window.print()",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if n := strings.Count(html, `<rect class="bar"`); n != 2 {
		t.Fatalf("bars = %d, want 2", n)
	}
}

func TestSummaryEscapesUserText(t *testing.T) {
	out, err := Summary(SummaryBundle{
		Header:  Header{GeneradoAt: generated, Filtro: Filtro{Plaza: "<script>alert(1)</script>"}},
		PorTipo: []model.Serie{{Etiqueta: "<b>x</b>", TotalKg: 1}},
	})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<script>alert(1)</script>") || strings.Contains(html, "<b>x</b>") {
		t.Fatalf("user text was not escaped")
	}
	if !strings.Contains(html, "&lt;b&gt;x&lt;/b&gt;") {
		t.Fatalf("escaped label not found")
	}
}

func TestSummaryWithoutData(t *testing.T) {
	out, err := Summary(SummaryBundle{Header: Header{GeneradoAt: generated}})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<svg") {
		t.Fatalf("empty summary drew a chart")
	}
	if !strings.Contains(html, "Sin datos para el periodo.") {
		t.Fatalf("empty message missing")
	}
	if !strings.Contains(html, "Plaza: Todas") {
		t.Fatalf("default plaza filter missing")
	}
}

func TestCollectionLog(t *testing.T) {
	recs := []model.Recoleccion{
		{Folio: "F-1", CantidadKg: 12.5, FechaRecoleccion: generated, PlazaNombre: "Norte", LocalNombre: "L1", TipoResiduoNombre: "PET"},
		{Folio: "F-2", CantidadKg: 7.5, FechaRecoleccion: generated, PlazaNombre: "Norte", LocalNombre: "L2", TipoResiduoNombre: "Vidrio", Observaciones: "a & b"},
	}
	out, err := CollectionLog(LogBundle{Header: Header{GeneradoAt: generated}, Recolecciones: recs, Total: 10})
	if err != nil {
		t.Fatalf("CollectionLog: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Bitácora de recolecciones", "F-1", "F-2", "20.00 kg", "a &amp; b", "Se muestran 2 de 10 registros.", "window.print()"} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestCollectionLogTotalNeverBelowRows(t *testing.T) {
	out, err := CollectionLog(LogBundle{
		Header:        Header{Titulo: "Mis capturas", GeneradoAt: generated},
		Recolecciones: []model.Recoleccion{{Folio: "F-1", FechaRecoleccion: generated}},
	})
	if err != nil {
		t.Fatalf("CollectionLog: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "Mis capturas") {
		t.Fatalf("custom title missing")
	}
	if strings.Contains(html, "Se muestran") {
		t.Fatalf("complete listing reported as partial")
	}
}

func TestNewChartScalesToHeaviest(t *testing.T) {
	c := NewChart([]model.Serie{{TotalKg: 50}, {TotalKg: 100}, {TotalKg: 0}}, 300, 200)
	if len(c.Bars) != 3 {
		t.Fatalf("bars = %d", len(c.Bars))
	}
	usable := c.Baseline - chartPadTop
	if c.Bars[1].H != usable {
		t.Fatalf("heaviest bar height = %v, want %v", c.Bars[1].H, usable)
	}
	if c.Bars[0].H != usable/2 {
		t.Fatalf("half bar height = %v, want %v", c.Bars[0].H, usable/2)
	}
	if c.Bars[2].H != 0 || c.Bars[2].Y != c.Baseline {
		t.Fatalf("zero bar = %+v", c.Bars[2])
	}
	if c.Bars[0].X >= c.Bars[1].X {
		t.Fatalf("bars not laid out left to right")
	}
}
