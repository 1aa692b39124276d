// Package catalog manages categories, products and reviews.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/storefront/domain"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"go.uber.org/zap"
)

var (
	// ErrCategoryNameEmpty indicates a missing category name.
	ErrCategoryNameEmpty = apperrors.New(apperrors.CodeCategoryNameEmpty, "category name is required")
	// ErrProductNameEmpty indicates a missing product name.
	ErrProductNameEmpty = apperrors.New(apperrors.CodeProductNameEmpty, "product name is required")
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = apperrors.New(apperrors.CodeProductInvalidPrice, "price must be zero or greater")
	// ErrInvalidStock indicates negative stock.
	ErrInvalidStock = apperrors.New(apperrors.CodeProductInvalidStock, "stock must be zero or greater")
	// ErrInvalidRating indicates a rating outside 1..5.
	ErrInvalidRating = apperrors.New(apperrors.CodeReviewInvalidRating, "rating must be between 1 and 5")
	// ErrAlreadyReviewed indicates a second review by the same user.
	ErrAlreadyReviewed = apperrors.New(apperrors.CodeReviewAlreadySubmitted, "You have already reviewed this product")
)

// Product page sizes.
var pageSizes = pagination.PageSizeConfig{Default: 24, Max: 100}

// ImageRemover deletes a previously uploaded image by its public URL.
type ImageRemover interface {
	DeleteByURL(ctx context.Context, url string) error
}

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name        string
	Description string
	ImageURL    string
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	ImageURL    string
	CategoryID  string
	Stock       int
}

// ReviewInput describes one review submission.
type ReviewInput struct {
	ProductID string
	UserID    string
	Rating    int
	Comment   string
}

// ProductDetail is a product with its reviews.
type ProductDetail struct {
	Product storage.Product
	Reviews []storage.Review
}

// Service applies catalog rules over a CatalogStore.
type Service struct {
	store  storage.CatalogStore
	images ImageRemover
	logger *zap.Logger
	now    func() time.Time
	newID  func() (string, error)
}

// NewService builds a catalog service. images may be nil when no media
// bucket is configured.
func NewService(store storage.CatalogStore, images ImageRemover, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		images: images,
		logger: logger,
		now:    time.Now,
		newID:  id.NewID,
	}
}

// Slugify lowercases name and replaces each run of whitespace with "-".
func Slugify(name string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace), "-")
}

// ListCategories returns every category ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]storage.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory stores a new category with a slug derived from its name.
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (storage.Category, error) {
	input, err := normalizeCategory(input)
	if err != nil {
		return storage.Category{}, err
	}
	categoryID, err := s.newID()
	if err != nil {
		return storage.Category{}, fmt.Errorf("generate category id: %w", err)
	}
	category := storage.Category{
		ID:          categoryID,
		Name:        input.Name,
		Slug:        Slugify(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.putCategory(ctx, category); err != nil {
		return storage.Category{}, err
	}
	return category, nil
}

// UpdateCategory replaces a category's fields, re-deriving the slug.
func (s *Service) UpdateCategory(ctx context.Context, categoryID string, input CategoryInput) (storage.Category, error) {
	input, err := normalizeCategory(input)
	if err != nil {
		return storage.Category{}, err
	}
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return storage.Category{}, domain.StorageError(err, "category")
	}
	category.Name = input.Name
	category.Slug = Slugify(input.Name)
	category.Description = input.Description
	category.ImageURL = input.ImageURL
	if err := s.putCategory(ctx, category); err != nil {
		return storage.Category{}, err
	}
	return category, nil
}

func (s *Service) putCategory(ctx context.Context, category storage.Category) error {
	err := s.store.PutCategory(ctx, category)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return apperrors.WithMetadata(apperrors.CodeCategorySlugTaken, "category slug already exists", map[string]string{"Name": category.Name})
	}
	if err != nil {
		return fmt.Errorf("put category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	return domain.StorageError(s.store.DeleteCategory(ctx, categoryID), "category")
}

// ListProducts returns one page of products.
func (s *Service) ListProducts(ctx context.Context, query storage.ProductQuery) (storage.ProductPage, error) {
	query.PageSize = pagination.ClampPageSize(query.PageSize, pageSizes)
	query.CategorySlug = strings.TrimSpace(query.CategorySlug)
	page, err := s.store.ListProducts(ctx, query)
	if errors.Is(err, storage.ErrInvalidFilter) {
		return storage.ProductPage{}, apperrors.Wrap(apperrors.CodeProductInvalidFilter, "invalid product filter", err)
	}
	if err != nil {
		return storage.ProductPage{}, domain.StorageError(err, "products")
	}
	return page, nil
}

// GetProduct returns a product with its reviews.
func (s *Service) GetProduct(ctx context.Context, productID string) (ProductDetail, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return ProductDetail{}, domain.StorageError(err, "product")
	}
	reviews, err := s.store.ListReviews(ctx, productID)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("list reviews: %w", err)
	}
	return ProductDetail{Product: product, Reviews: reviews}, nil
}

// CreateProduct stores a new product with no rating.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (storage.Product, error) {
	input, err := normalizeProduct(input)
	if err != nil {
		return storage.Product{}, err
	}
	productID, err := s.newID()
	if err != nil {
		return storage.Product{}, fmt.Errorf("generate product id: %w", err)
	}
	now := s.now().UTC()
	product := storage.Product{
		ID:          productID,
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		CategoryID:  input.CategoryID,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutProduct(ctx, product); err != nil {
		return storage.Product{}, domain.StorageError(err, "category")
	}
	return product, nil
}

// UpdateProduct replaces a product's editable fields. When the image URL
// changes the previous image is removed on a best-effort basis.
func (s *Service) UpdateProduct(ctx context.Context, productID string, input ProductInput) (storage.Product, error) {
	input, err := normalizeProduct(input)
	if err != nil {
		return storage.Product{}, err
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return storage.Product{}, domain.StorageError(err, "product")
	}
	previousImage := product.ImageURL

	product.Name = input.Name
	product.Description = input.Description
	product.PriceCents = input.PriceCents
	product.ImageURL = input.ImageURL
	product.CategoryID = input.CategoryID
	product.Stock = input.Stock
	product.UpdatedAt = s.now().UTC()
	if err := s.store.PutProduct(ctx, product); err != nil {
		return storage.Product{}, domain.StorageError(err, "category")
	}
	if previousImage != "" && previousImage != product.ImageURL {
		s.removeImage(ctx, product.ID, previousImage)
	}
	return product, nil
}

// DeleteProduct removes a product and, best effort, its image.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return domain.StorageError(err, "product")
	}
	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		return domain.StorageError(err, "product")
	}
	if product.ImageURL != "" {
		s.removeImage(ctx, product.ID, product.ImageURL)
	}
	return nil
}

func (s *Service) removeImage(ctx context.Context, productID, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.DeleteByURL(ctx, url); err != nil {
		s.logger.Warn("remove product image",
			zap.String("product_id", productID),
			zap.String("image_url", url),
			zap.Error(err),
		)
	}
}

// SubmitReview records one review per user per product and returns the
// product's new mean rating.
func (s *Service) SubmitReview(ctx context.Context, input ReviewInput) (storage.Review, float64, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return storage.Review{}, 0, apperrors.New(apperrors.CodeUnauthenticated, "review requires a signed-in user")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return storage.Review{}, 0, ErrInvalidRating
	}
	reviewID, err := s.newID()
	if err != nil {
		return storage.Review{}, 0, fmt.Errorf("generate review id: %w", err)
	}
	review := storage.Review{
		ID:        reviewID,
		ProductID: strings.TrimSpace(input.ProductID),
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: s.now().UTC(),
	}
	rating, err := s.store.AddReview(ctx, review)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return storage.Review{}, 0, ErrAlreadyReviewed
	}
	if err != nil {
		return storage.Review{}, 0, domain.StorageError(err, "product")
	}
	return review, rating, nil
}

func normalizeCategory(input CategoryInput) (CategoryInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	if input.Name == "" || Slugify(input.Name) == "" {
		return CategoryInput{}, ErrCategoryNameEmpty
	}
	return input, nil
}

func normalizeProduct(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.ImageURL = strings.TrimSpace(input.ImageURL)
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	switch {
	case input.Name == "":
		return ProductInput{}, ErrProductNameEmpty
	case input.PriceCents < 0:
		return ProductInput{}, ErrInvalidPrice
	case input.Stock < 0:
		return ProductInput{}, ErrInvalidStock
	}
	return input, nil
}

// RoundRating rounds a mean rating to one decimal for display.
func RoundRating(rating float64) float64 {
	return math.Round(rating*10) / 10
}
