package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sornchai/sitetrack/internal/recordservice"
	"github.com/sornchai/sitetrack/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker and uploads may be nil on deployments without SSE or a bucket.
func NewRouter(svc *recordservice.Service, authEnabled bool, token string, broker *sse.Broker, uploads Uploader) chi.Router {
	h := NewHandler(svc, broker, uploads)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Records CRUD.
	r.Get("/records", h.ListRecords)
	r.Get("/records/recent", h.RecentRecords)
	r.Post("/records", h.CreateRecord)
	r.Get("/records/{id}", h.GetRecord)
	r.Put("/records/{id}", h.UpdateRecord)
	r.Delete("/records/{id}", h.DeleteRecord)

	// Dashboard counters.
	r.Get("/stats", h.Stats)

	// Theme preference.
	r.Get("/theme", h.GetTheme)
	r.Post("/theme/toggle", h.ToggleTheme)

	// Photo uploads (auth-protected like everything else).
	r.Post("/attachments", h.UploadAttachment)

	// SSE endpoint (protected by the same auth middleware).
	if broker != nil {
		r.Method(http.MethodGet, "/events", broker)
	}

	return r
}
