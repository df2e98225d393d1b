// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geomap

import (
	"html/template"
	"io"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// Options controls the rendered page.
type Options struct {
	// Title is shown in the overlay, e.g. "Ukraine, last 72h".
	Title string

	// Heat draws a threat-score heat layer instead of markers.
	Heat bool
}

type legendEntry struct {
	Label string
	Color string
}

type page struct {
	Options
	Points []Point
	Count  int
	Lat    float64
	Lon    float64
	Zoom   int
	Legend []legendEntry
}

var pageTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Intel Map{{if .Title}}: {{.Title}}{{end}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
{{if .Heat}}<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>{{end}}
<style>
html, body, #map { height: 100%; margin: 0; background: #0a0a0f; }
.overlay { position: fixed; z-index: 9999; background: rgba(0,0,0,0.85); color: #ccc; font-family: monospace; border-radius: 8px; }
.title { top: 10px; left: 50%; transform: translateX(-50%); padding: 10px 20px; border: 1px solid #dc2626; }
.title h4 { color: #dc2626; margin: 0; }
.legend { bottom: 30px; right: 30px; padding: 12px 16px; border: 1px solid #333; font-size: 12px; }
.legend ul { list-style: none; padding: 0; margin: 8px 0 0 0; }
.dot { width: 12px; height: 12px; display: inline-block; border-radius: 50%; margin-right: 8px; }
</style>
</head>
<body>
<div id="map"></div>
<div class="overlay title">
<h4>INTEL MAP</h4>
<p style="margin: 5px 0 0 0; font-size: 12px;">{{.Count}} items{{if .Title}} | {{.Title}}{{end}}</p>
</div>
<div class="overlay legend">
<strong style="color: white;">Intel Categories</strong>
<ul>
{{range .Legend}}<li><span class="dot" style="background: {{.Color}}"></span>{{.Label}}</li>
{{end}}</ul>
</div>
<script>
var points = {{.Points}};
var map = L.map('map').setView([{{.Lat}}, {{.Lon}}], {{.Zoom}});
L.tileLayer('https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png', {
  attribution: '&copy; OpenStreetMap contributors &copy; CARTO',
  maxZoom: 19
}).addTo(map);
function esc(s) {
  var d = document.createElement('div');
  d.textContent = s == null ? '' : String(s);
  return d.innerHTML;
}
{{if .Heat}}
L.heatLayer(points.filter(function (p) { return p.threat_score > 0; })
  .map(function (p) { return [p.lat, p.lon, p.threat_score / 100]; }), {radius: 25}).addTo(map);
{{else}}
points.forEach(function (p) {
  var html = '<div style="width: 300px; font-family: Arial, sans-serif;">' +
    '<h4 style="color: ' + p.threat_color + '; margin: 0 0 8px 0;">[' + esc(p.category) + '] ' + esc(p.threat_level) + '</h4>' +
    '<p style="font-size: 13px;"><strong>Summary:</strong><br>' + esc(p.summary) + '</p>' +
    '<p style="font-size: 11px; color: #666;">' +
    '<strong>Country:</strong> ' + esc(p.country) + '<br>' +
    '<strong>Keyword:</strong> ' + esc(p.keyword) + '<br>' +
    '<strong>Confidence:</strong> ' + Math.round(p.confidence * 100) + '%<br>' +
    '<strong>Time:</strong> ' + esc(p.timestamp) + '</p>';
  if (/^https?:\/\//.test(p.source_id)) {
    html += '<a href="' + encodeURI(p.source_id) + '" target="_blank" rel="noopener">View Source</a>';
  }
  html += '</div>';
  L.circleMarker([p.lat, p.lon], {radius: 8, color: p.color, fillColor: p.color, fillOpacity: 0.8})
    .bindPopup(html, {maxWidth: 350})
    .bindTooltip(esc(p.category + ': ' + p.keyword))
    .addTo(map);
});
{{end}}
</script>
</body>
</html>
`))

// WriteHTML writes a standalone Leaflet page for points. The map centers on
// the mean position, or a world view when there are no points.
func WriteHTML(w io.Writer, points []Point, opts Options) error {
	if points == nil {
		points = []Point{}
	}
	lat, lon, zoom := Center(points)
	p := page{
		Options: opts,
		Points:  points,
		Count:   len(points),
		Lat:     lat,
		Lon:     lon,
		Zoom:    zoom,
	}
	for _, c := range types.AllCategories() {
		p.Legend = append(p.Legend, legendEntry{Label: c.Label(), Color: CategoryColors[c]})
	}
	return pageTmpl.Execute(w, p)
}
