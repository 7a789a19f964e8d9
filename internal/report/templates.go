package report

const baseHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Titulo}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1f2d1f; margin: 32px; }
  header { border-bottom: 3px solid #2e7d32; margin-bottom: 24px; padding-bottom: 12px; }
  header h1 { margin: 0; font-size: 22px; color: #2e7d32; }
  header .brand { font-size: 12px; letter-spacing: .08em; text-transform: uppercase; color: #558b2f; }
  .meta { font-size: 12px; color: #555; margin-top: 6px; }
  .cards { display: flex; gap: 12px; margin-bottom: 24px; }
  .card { flex: 1; border: 1px solid #c8e6c9; border-radius: 6px; padding: 12px; }
  .card .value { font-size: 20px; font-weight: bold; color: #1b5e20; }
  .card .label { font-size: 11px; color: #666; text-transform: uppercase; }
  h2 { font-size: 16px; color: #33691e; margin-top: 28px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th, td { border-bottom: 1px solid #e0e0e0; padding: 6px 8px; text-align: left; }
  th { background: #f1f8e9; }
  td.num, th.num { text-align: right; }
  tfoot td { font-weight: bold; border-top: 2px solid #2e7d32; }
  svg .bar { fill: #66bb6a; }
  svg text { font-size: 10px; fill: #333; }
  .empty { color: #888; font-style: italic; }
  @media print { body { margin: 12mm; } .cards { break-inside: avoid; } }
</style>
</head>
<body>
<header>
  <div class="brand">Acrux-Bio · Elefantes Verdes</div>
  <h1>{{.Titulo}}</h1>
  <div class="meta">
    Generado {{stamp .GeneradoAt}}{{if .GeneradoPor}} por {{.GeneradoPor}}{{end}}
    {{- with .Filtro}}
    · Plaza: {{if .Plaza}}{{.Plaza}}{{else}}Todas{{end}}
    {{- if .Local}} · Local: {{.Local}}{{end}}
    {{- if .Desde}} · Desde: {{.Desde}}{{end}}
    {{- if .Hasta}} · Hasta: {{.Hasta}}{{end}}
    {{- end}}
  </div>
</header>
{{template "body" .}}
<script>window.onload = function () { window.print(); };</script>
</body>
</html>
`

const summaryBody = `
<section class="cards">
  <div class="card"><div class="value">{{.Resumen.TotalRecolecciones}}</div><div class="label">Recolecciones</div></div>
  <div class="card"><div class="value">{{kg .Resumen.TotalKg}}</div><div class="label">Total recolectado</div></div>
  <div class="card"><div class="value">{{.Resumen.LocalesActivos}}</div><div class="label">Locales</div></div>
  <div class="card"><div class="value">{{.Resumen.PlazasActivas}}</div><div class="label">Plazas</div></div>
</section>

<h2>Por tipo de residuo</h2>
{{template "chart" chart .PorTipo}}
{{template "table" rows .PorTipo .Resumen.TotalKg}}

<h2>Por plaza</h2>
{{template "table" rows .PorPlaza .Resumen.TotalKg}}

{{if .PorMes}}
<h2>Por mes</h2>
{{template "chart" chart .PorMes}}
{{end}}

{{define "chart"}}
{{if .Bars}}
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" role="img">
  <line x1="0" y1="{{.Baseline}}" x2="{{.Width}}" y2="{{.Baseline}}" stroke="#999"/>
  {{- $base := .Baseline}}
  {{- range .Bars}}
  <rect class="bar" x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}"/>
  <text x="{{.LabelX}}" y="{{.Y}}" dy="-4" text-anchor="middle">{{printf "%.1f" .Value}}</text>
  <text x="{{.LabelX}}" y="{{$base}}" dy="14" text-anchor="middle">{{.Label}}</text>
  {{- end}}
</svg>
{{else}}
<p class="empty">Sin datos para el periodo.</p>
{{end}}
{{end}}

{{define "table"}}
{{if .Series}}
<table>
  <thead><tr><th>Concepto</th><th class="num">Recolecciones</th><th class="num">Kilogramos</th><th class="num">%</th></tr></thead>
  <tbody>
  {{- $total := .Total}}
  {{- range .Series}}
    <tr><td>{{.Etiqueta}}</td><td class="num">{{.Recolecciones}}</td><td class="num">{{kg .TotalKg}}</td><td class="num">{{share .TotalKg $total}}</td></tr>
  {{- end}}
  </tbody>
</table>
{{else}}
<p class="empty">Sin datos para el periodo.</p>
{{end}}
{{end}}
`

const logBody = `
<section class="cards">
  <div class="card"><div class="value">{{.Total}}</div><div class="label">Recolecciones</div></div>
  <div class="card"><div class="value">{{kg .TotalKg}}</div><div class="label">Kilogramos listados</div></div>
</section>
{{if .Recolecciones}}
<table>
  <thead>
    <tr><th>Fecha</th><th>Folio</th><th>Plaza</th><th>Local</th><th>Tipo</th><th class="num">Cantidad</th><th>Observaciones</th></tr>
  </thead>
  <tbody>
  {{- range .Recolecciones}}
    <tr>
      <td>{{date .FechaRecoleccion}}</td><td>{{.Folio}}</td><td>{{.PlazaNombre}}</td><td>{{.LocalNombre}}</td>
      <td>{{.TipoResiduoNombre}}</td><td class="num">{{kg .CantidadKg}}</td><td>{{.Observaciones}}</td>
    </tr>
  {{- end}}
  </tbody>
  <tfoot><tr><td colspan="5">Total listado</td><td class="num">{{kg .TotalKg}}</td><td></td></tr></tfoot>
</table>
{{if lt (len .Recolecciones) .Total}}<p class="meta">Se muestran {{len .Recolecciones}} de {{.Total}} registros.</p>{{end}}
{{else}}
<p class="empty">Sin recolecciones para el periodo.</p>
{{end}}
`
