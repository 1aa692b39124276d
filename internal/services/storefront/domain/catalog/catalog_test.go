package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite/sqlitetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2026, time.April, 1, 9, 30, 0, 0, time.UTC)

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeImages) DeleteByURL(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return f.err
}

func newTestService(t *testing.T, images ImageRemover, logger *zap.Logger) (*Service, storage.Store) {
	t.Helper()
	store := sqlitetest.Open(t)
	svc := NewService(store, images, logger)
	svc.now = func() time.Time { return testNow }
	var seq int
	svc.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("id-%02d", seq), nil
	}
	return svc, store
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single word", in: "Shoes", want: "shoes"},
		{name: "spaces collapse", in: "Running   Shoes", want: "running-shoes"},
		{name: "trimmed", in: "  Home Decor  ", want: "home-decor"},
		{name: "tabs and newlines", in: "Kitchen\t\nTools", want: "kitchen-tools"},
		{name: "blank", in: "   ", want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tc.in); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, CategoryInput{Name: " Home Decor ", Description: "Lamps"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if created.Slug != "home-decor" || created.Name != "Home Decor" {
		t.Fatalf("created = %+v, want trimmed name and slug home-decor", created)
	}
	if !created.CreatedAt.Equal(testNow) {
		t.Fatalf("created at = %v, want %v", created.CreatedAt, testNow)
	}

	updated, err := svc.UpdateCategory(ctx, created.ID, CategoryInput{Name: "Garden Decor"})
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Slug != "garden-decor" {
		t.Fatalf("slug = %q, want garden-decor", updated.Slug)
	}

	if _, err := svc.CreateCategory(ctx, CategoryInput{Name: "garden   decor"}); apperrors.CodeOf(err) != apperrors.CodeCategorySlugTaken {
		t.Fatalf("duplicate slug code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeCategorySlugTaken)
	}

	categories, err := svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(categories))
	}

	if err := svc.DeleteCategory(ctx, created.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if err := svc.DeleteCategory(ctx, created.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("second delete code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeNotFound)
	}
}

func TestCategoryValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil, nil)
	if _, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "  "}); !errors.Is(err, ErrCategoryNameEmpty) {
		t.Fatalf("err = %v, want %v", err, ErrCategoryNameEmpty)
	}
	if _, err := svc.UpdateCategory(context.Background(), "missing", CategoryInput{Name: "Shoes"}); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("update missing code = %v, want NOT_FOUND", apperrors.CodeOf(err))
	}
}

func TestProductValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input ProductInput
		want  error
	}{
		{name: "missing name", input: ProductInput{Name: " ", PriceCents: 100}, want: ErrProductNameEmpty},
		{name: "negative price", input: ProductInput{Name: "Lamp", PriceCents: -1}, want: ErrInvalidPrice},
		{name: "negative stock", input: ProductInput{Name: "Lamp", Stock: -2}, want: ErrInvalidStock},
	}

	svc, _ := newTestService(t, nil, nil)
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateProduct(context.Background(), tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil, nil)
	_, err := svc.CreateProduct(context.Background(), ProductInput{Name: "Lamp", CategoryID: "nope"})
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("code = %v, want NOT_FOUND", apperrors.CodeOf(err))
	}
}

func TestUpdateProductRemovesReplacedImage(t *testing.T) {
	t.Parallel()

	images := &fakeImages{err: errors.New("bucket offline")}
	core, logs := observer.New(zap.WarnLevel)
	svc, _ := newTestService(t, images, zap.New(core))
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Lamp", PriceCents: 2500, Stock: 3, ImageURL: "https://cdn.test/media/u1/a.png"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	// Same image: nothing removed.
	if _, err := svc.UpdateProduct(ctx, product.ID, ProductInput{Name: "Lamp", PriceCents: 2600, ImageURL: "https://cdn.test/media/u1/a.png"}); err != nil {
		t.Fatalf("update product: %v", err)
	}
	if len(images.deleted) != 0 {
		t.Fatalf("deleted = %v, want none", images.deleted)
	}

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{Name: "Desk Lamp", PriceCents: 2600, ImageURL: "https://cdn.test/media/u1/b.png"})
	if err != nil {
		t.Fatalf("update product with failing image removal: %v", err)
	}
	if updated.Name != "Desk Lamp" || updated.PriceCents != 2600 {
		t.Fatalf("updated = %+v", updated)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "https://cdn.test/media/u1/a.png" {
		t.Fatalf("deleted = %v, want old image", images.deleted)
	}
	if logs.FilterMessage("remove product image").Len() != 1 {
		t.Fatalf("expected one warning for failed image removal, got %d", logs.Len())
	}
}

func TestDeleteProductRemovesImage(t *testing.T) {
	t.Parallel()

	images := &fakeImages{}
	svc, _ := newTestService(t, images, nil)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Mug", PriceCents: 900, ImageURL: "https://cdn.test/media/u1/mug.webp"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := svc.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if len(images.deleted) != 1 {
		t.Fatalf("deleted = %v, want one image", images.deleted)
	}
	if _, err := svc.GetProduct(ctx, product.ID); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("get deleted code = %v, want NOT_FOUND", apperrors.CodeOf(err))
	}
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil, nil)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, CategoryInput{Name: "Kitchen"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	for _, input := range []ProductInput{
		{Name: "Bowl", PriceCents: 1200, CategoryID: category.ID, Stock: 4},
		{Name: "Apron", PriceCents: 1800, CategoryID: category.ID},
		{Name: "Candle", PriceCents: 700},
	} {
		if _, err := svc.CreateProduct(ctx, input); err != nil {
			t.Fatalf("create %s: %v", input.Name, err)
		}
	}

	page, err := svc.ListProducts(ctx, storage.ProductQuery{CategorySlug: "kitchen", PageSize: 1})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(page.Products) != 1 || page.Products[0].Name != "Apron" || page.NextPageToken == "" {
		t.Fatalf("first page = %+v", page)
	}
	page, err = svc.ListProducts(ctx, storage.ProductQuery{CategorySlug: "kitchen", PageSize: 1, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page.Products) != 1 || page.Products[0].Name != "Bowl" || page.NextPageToken != "" {
		t.Fatalf("second page = %+v", page)
	}

	page, err = svc.ListProducts(ctx, storage.ProductQuery{Filter: "price_cents < 1000"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(page.Products) != 1 || page.Products[0].Name != "Candle" {
		t.Fatalf("filtered = %+v", page.Products)
	}

	if _, err := svc.ListProducts(ctx, storage.ProductQuery{Filter: "color = \"red\""}); apperrors.CodeOf(err) != apperrors.CodeProductInvalidFilter {
		t.Fatalf("bad filter code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeProductInvalidFilter)
	}
	if _, err := svc.ListProducts(ctx, storage.ProductQuery{PageToken: "%%%"}); apperrors.CodeOf(err) != apperrors.CodeInvalidInput {
		t.Fatalf("bad token code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeInvalidInput)
	}
}

func TestSubmitReview(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t, nil, nil)
	ctx := context.Background()
	sqlitetest.MustCreateUser(t, store, "u1", "ana@example.com", "Ana", "")
	sqlitetest.MustCreateUser(t, store, "u2", "bo@example.com", "Bo", "")

	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Kettle", PriceCents: 4000})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if _, _, err := svc.SubmitReview(ctx, ReviewInput{ProductID: product.ID, UserID: "u1", Rating: 6}); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("rating 6 err = %v, want %v", err, ErrInvalidRating)
	}
	if _, _, err := svc.SubmitReview(ctx, ReviewInput{ProductID: product.ID, Rating: 4}); apperrors.CodeOf(err) != apperrors.CodeUnauthenticated {
		t.Fatalf("anonymous code = %v, want UNAUTHENTICATED", apperrors.CodeOf(err))
	}

	if _, rating, err := svc.SubmitReview(ctx, ReviewInput{ProductID: product.ID, UserID: "u1", Rating: 5, Comment: " great "}); err != nil || rating != 5 {
		t.Fatalf("first review rating = %v, err = %v", rating, err)
	}
	if _, rating, err := svc.SubmitReview(ctx, ReviewInput{ProductID: product.ID, UserID: "u2", Rating: 2}); err != nil || rating != 3.5 {
		t.Fatalf("second review rating = %v, err = %v; want 3.5", rating, err)
	}
	if _, _, err := svc.SubmitReview(ctx, ReviewInput{ProductID: product.ID, UserID: "u1", Rating: 1}); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("duplicate err = %v, want %v", err, ErrAlreadyReviewed)
	}
	if _, _, err := svc.SubmitReview(ctx, ReviewInput{ProductID: "missing", UserID: "u1", Rating: 3}); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("missing product code = %v, want NOT_FOUND", apperrors.CodeOf(err))
	}

	detail, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if detail.Product.Rating != 3.5 || len(detail.Reviews) != 2 {
		t.Fatalf("detail rating = %v reviews = %d, want 3.5 and 2", detail.Product.Rating, len(detail.Reviews))
	}
	if RoundRating(10.0/3.0) != 3.3 {
		t.Fatalf("RoundRating(3.33) = %v, want 3.3", RoundRating(10.0/3.0))
	}
}
