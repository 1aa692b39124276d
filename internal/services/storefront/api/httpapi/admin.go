package httpapi

import (
	"errors"
	"net/http"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/services/storefront/media"
)

// multipartOverhead leaves room for form boundaries around the file part.
const multipartOverhead = 1 << 20

func (h handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	byStatus := stats.ByStatus
	if byStatus == nil {
		byStatus = map[string]int{}
	}
	h.writeJSON(w, http.StatusOK, dashboardView{
		TotalOrders:    stats.Total,
		OrdersByStatus: byStatus,
		RecentOrders:   newOrderViews(stats.Recent),
	})
}

func (h handlers) handleListOrders(w http.ResponseWriter, r *http.Request) {
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	records, next, err := h.orders.List(r.Context(), pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Orders        []orderView `json:"orders"`
		NextPageToken string      `json:"next_page_token,omitempty"`
	}{Orders: newOrderViews(records), NextPageToken: next})
}

func (h handlers) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newOrderView(record))
}

// handleUploadImage stores the multipart "file" field and returns its public
// URL.
func (h handlers) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.writeError(w, r, media.ErrTooLarge)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			h.writeError(w, r, media.ErrMissing)
		default:
			h.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidInput, "parse upload", err))
		}
		return
	}
	defer file.Close()

	url, err := h.media.Upload(r.Context(), requestctx.UserIDFromContext(r.Context()), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// handleDeleteImage removes the object behind the "url" query parameter.
func (h handlers) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if _, ok := media.KeyFromURL(raw); !ok {
		h.writeError(w, r, apperrors.New(apperrors.CodeInvalidInput, "url must name a media object"))
		return
	}
	if err := h.media.DeleteByURL(r.Context(), raw); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
