package handlers

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/apperrors"
)

// TrackPage sirve la página HTML pública de seguimiento. Cualquiera con el
// link puede abrirla: el token en la URL es la única credencial. La página
// repollea /api/location/get-location/:token cada 5 segundos.
func (h *TrackingHandler) TrackPage(c *fiber.Ctx) error {
	token := c.Params("token")

	view, err := h.engine.GetLocation(token)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound, apperrors.KindSessionExpired, apperrors.KindSessionEnded:
			c.Type("html", "utf-8")
			return c.Status(fiber.StatusNotFound).SendString(trackUnavailablePage)
		default:
			return fail(c, err)
		}
	}

	c.Type("html", "utf-8")
	return c.SendString(fmt.Sprintf(trackPageTemplate,
		html.EscapeString(view.OwnerName),
		html.EscapeString(view.OwnerName),
		html.EscapeString(token),
	))
}

// La página usa Leaflet + OpenStreetMap, igual que el frontend móvil.
// %s: owner name (title), owner name (header), session token.
const trackPageTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>SheSafe - Siguiendo a %s</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  body { margin: 0; font-family: 'Segoe UI', Arial, sans-serif; }
  #header { background: #7b2d8b; color: white; padding: 14px 18px; }
  #header h1 { margin: 0; font-size: 1.2em; }
  #status { font-size: 0.85em; opacity: 0.9; }
  #map { height: calc(100vh - 120px); }
  #footer { padding: 10px 18px; font-size: 0.8em; color: #666; }
  .stale { color: #ffd54f; }
</style>
</head>
<body>
<div id="header">
  <h1>📍 Siguiendo a %s</h1>
  <div id="status">Conectando...</div>
</div>
<div id="map"></div>
<div id="footer">Compartido con SheSafe · la ubicación se actualiza cada 5 segundos</div>
<script>
const TOKEN = "%s";
const map = L.map('map').setView([0, 0], 2);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

let marker = null;
let centered = false;

async function refresh() {
  try {
    const res = await fetch('/api/location/get-location/' + TOKEN);
    const data = await res.json();
    if (!res.ok || !data.success) {
      document.getElementById('status').textContent =
        res.status === 410 ? 'La sesión ha finalizado' : 'Sesión no disponible';
      return;
    }
    const { lat, lng } = data.location;
    if (lat === 0 && lng === 0) {
      document.getElementById('status').textContent = 'Esperando la primera ubicación...';
      return;
    }
    if (!marker) {
      marker = L.marker([lat, lng]).addTo(map);
    } else {
      marker.setLatLng([lat, lng]);
    }
    if (!centered) { map.setView([lat, lng], 16); centered = true; }
    const when = new Date(data.last_update).toLocaleTimeString();
    document.getElementById('status').textContent =
      (data.address ? data.address + ' · ' : '') + 'Actualizado: ' + when;
  } catch (e) {
    document.getElementById('status').textContent = 'Sin conexión, reintentando...';
  }
}

refresh();
setInterval(refresh, 5000);
</script>
</body>
</html>`

const trackUnavailablePage = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>SheSafe - Sesión no disponible</title>
<style>
  body { margin: 0; font-family: 'Segoe UI', Arial, sans-serif; background: #f6f2f8;
         display: flex; align-items: center; justify-content: center; height: 100vh; }
  .card { background: white; border-radius: 12px; padding: 40px; text-align: center;
          box-shadow: 0 2px 12px rgba(0,0,0,0.1); max-width: 360px; }
  h1 { color: #7b2d8b; font-size: 1.3em; }
  p { color: #666; }
</style>
</head>
<body>
<div class="card">
  <h1>🔒 Sesión no disponible</h1>
  <p>Este enlace de seguimiento ya no está activo. La persona dejó de compartir su ubicación o la sesión expiró.</p>
</div>
</body>
</html>`
