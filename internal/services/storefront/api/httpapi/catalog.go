package httpapi

import (
	"net/http"
	"strings"

	"github.com/louisbranch/storefront/internal/platform/httpx"
	"github.com/louisbranch/storefront/internal/platform/requestctx"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/catalog"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (req categoryRequest) input() catalog.CategoryInput {
	return catalog.CategoryInput{Name: req.Name, Description: req.Description, ImageURL: req.ImageURL}
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id"`
	Stock       int    `json:"stock"`
}

func (req productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
	}
}

func (h handlers) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]categoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, newCategoryView(category))
	}
	h.writeJSON(w, http.StatusOK, views)
}

func (h handlers) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newCategoryView(category))
}

func (h handlers) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	category, err := h.catalog.UpdateCategory(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newCategoryView(category))
}

func (h handlers) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListProducts accepts category (slug), filter, page_size and
// page_token query parameters.
func (h handlers) handleListProducts(w http.ResponseWriter, r *http.Request) {
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	page, err := h.catalog.ListProducts(r.Context(), storage.ProductQuery{
		CategorySlug: strings.TrimSpace(query.Get("category")),
		Filter:       query.Get("filter"),
		PageSize:     pageSize,
		PageToken:    query.Get("page_token"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]productView, 0, len(page.Products))
	for _, product := range page.Products {
		views = append(views, newProductView(product))
	}
	h.writeJSON(w, http.StatusOK, productPageView{Products: views, NextPageToken: page.NextPageToken})
}

func (h handlers) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reviews := make([]reviewView, 0, len(detail.Reviews))
	for _, review := range detail.Reviews {
		reviews = append(reviews, newReviewView(review))
	}
	h.writeJSON(w, http.StatusOK, productDetailView{productView: newProductView(detail.Product), Reviews: reviews})
}

func (h handlers) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newProductView(product))
}

func (h handlers) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newProductView(product))
}

func (h handlers) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	review, rating, err := h.catalog.SubmitReview(r.Context(), catalog.ReviewInput{
		ProductID: r.PathValue("id"),
		UserID:    requestctx.UserIDFromContext(r.Context()),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, struct {
		Review        reviewView `json:"review"`
		ProductRating float64    `json:"product_rating"`
	}{Review: newReviewView(review), ProductRating: catalog.RoundRating(rating)})
}
