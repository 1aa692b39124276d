package httpapi

import (
	"net/http"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/content"
)

type faqRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	OrderIndex int    `json:"order_index"`
}

func (req faqRequest) input() content.FAQInput {
	return content.FAQInput{Question: req.Question, Answer: req.Answer, OrderIndex: req.OrderIndex}
}

func (h handlers) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.content.ListFAQs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]faqView, 0, len(faqs))
	for _, faq := range faqs {
		views = append(views, newFAQView(faq))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h handlers) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	faq, err := h.content.CreateFAQ(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newFAQView(faq))
}

func (h handlers) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	faq, err := h.content.UpdateFAQ(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newFAQView(faq))
}

func (h handlers) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteFAQ(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.content.ListSettings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]settingView, 0, len(settings))
	for _, setting := range settings {
		views = append(views, newSettingView(setting))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h handlers) handleCreateSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key         string   `json:"key"`
		Value       string   `json:"value"`
		Category    string   `json:"category"`
		Label       string   `json:"label"`
		Type        string   `json:"type"`
		Description string   `json:"description"`
		Options     []string `json:"options"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	setting, err := h.content.CreateSetting(r.Context(), content.SettingInput{
		Key:         req.Key,
		Value:       req.Value,
		Category:    req.Category,
		Label:       req.Label,
		Type:        req.Type,
		Description: req.Description,
		Options:     req.Options,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newSettingView(setting))
}

func (h handlers) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	setting, err := h.content.UpdateSettingValue(r.Context(), r.PathValue("key"), req.Value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newSettingView(setting))
}

func (h handlers) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteSetting(r.Context(), r.PathValue("key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
