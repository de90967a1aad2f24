package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sornchai/sitetrack/internal/apperr"
	"github.com/sornchai/sitetrack/internal/models"
	"github.com/sornchai/sitetrack/internal/objstore"
	"github.com/sornchai/sitetrack/internal/recordservice"
	"github.com/sornchai/sitetrack/internal/sse"
)

const (
	defaultRecentCount = 3
	maxUploadBytes     = 10 << 20 // 10 MB
)

// Uploader is the bucket surface the attachment endpoint needs.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// Handler holds API route handlers.
type Handler struct {
	svc     *recordservice.Service
	broker  *sse.Broker
	uploads Uploader
}

// NewHandler creates a new Handler. broker and uploads may be nil; the
// matching features are then skipped or unavailable.
func NewHandler(svc *recordservice.Service, broker *sse.Broker, uploads Uploader) *Handler {
	return &Handler{svc: svc, broker: broker, uploads: uploads}
}

func (h *Handler) publish(kind, id string) {
	if h.broker != nil {
		h.broker.PublishRecordEvent(kind, id)
	}
}

// writeError maps core failures onto HTTP statuses.
func writeError(w http.ResponseWriter, err error, op string) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody(ve.Reason))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListRecords handles GET /records. An optional limit query caps the
// snapshot; records come back newest first either way.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		recs []models.Record
		err  error
	)
	if limit > 0 {
		recs, err = h.svc.FetchRecent(r.Context(), limit)
	} else {
		recs, err = h.svc.FetchAll(r.Context())
	}
	if err != nil {
		writeError(w, err, "list records")
		return
	}
	if recs == nil {
		recs = []models.Record{}
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs})
}

// RecentRecords handles GET /records/recent, the home-screen strip.
func (h *Handler) RecentRecords(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	if n <= 0 {
		n = defaultRecentCount
	}
	recs, err := h.svc.FetchRecent(r.Context(), n)
	if err != nil {
		writeError(w, err, "recent records")
		return
	}
	if recs == nil {
		recs = []models.Record{}
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: recs})
}

// GetRecord handles GET /records/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err, "get record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord handles POST /records.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.svc.SubmitNew(r.Context(), req.Title, req.Description, req.Location.sample())
	if err != nil {
		writeError(w, err, "create record")
		return
	}
	h.publish("created", rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecord handles PUT /records/{id}.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")
	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	fields := models.Fields{
		Title:       models.String(req.Title),
		Description: models.String(req.Description),
		Status:      req.Status,
	}
	if sample := req.Location.sample(); sample != nil {
		fields.Location = sample.Location()
	}

	rec, err := h.svc.EditExisting(r.Context(), id, fields)
	if err != nil {
		writeError(w, err, "update record")
		return
	}
	h.publish("updated", rec.ID)
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /records/{id}. The confirmation dialog is
// the client's responsibility; this endpoint deletes immediately.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.RemoveByID(r.Context(), id); err != nil {
		writeError(w, err, "delete record")
		return
	}
	h.publish("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.FetchStats(r.Context())
	if err != nil {
		writeError(w, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetTheme handles GET /theme.
func (h *Handler) GetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeResponse{Theme: h.svc.Theme()})
}

// ToggleTheme handles POST /theme/toggle.
func (h *Handler) ToggleTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ThemeResponse{Theme: h.svc.ToggleTheme()})
}

// UploadAttachment handles POST /attachments: a multipart photo upload
// forwarded to the object-storage bucket.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("attachments not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	key := objstore.UploadPath(header.Filename)
	if err := h.uploads.Upload(r.Context(), key, data, contentTypeOf(header)); err != nil {
		slog.Error("attachment upload failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("upload failed"))
		return
	}
	writeJSON(w, http.StatusCreated, AttachmentResponse{Key: key, URL: h.uploads.PublicURL(key)})
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
