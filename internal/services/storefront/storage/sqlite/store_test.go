package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

var testNow = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "storefront.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func mustPutCategory(t *testing.T, store *Store, id, name, slug string) {
	t.Helper()
	if err := store.PutCategory(context.Background(), storage.Category{ID: id, Name: name, Slug: slug}); err != nil {
		t.Fatalf("put category %s: %v", id, err)
	}
}

func mustPutProduct(t *testing.T, store *Store, product storage.Product) {
	t.Helper()
	if err := store.PutProduct(context.Background(), product); err != nil {
		t.Fatalf("put product %s: %v", product.ID, err)
	}
}

func mustCreateUser(t *testing.T, store *Store, id, email, name string) {
	t.Helper()
	if err := store.CreateUser(context.Background(), storage.User{ID: id, Email: email, Name: name, PasswordHash: "hash"}); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "migrate.db")
	applied, err := Migrate(context.Background(), path)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected migrations on a fresh database")
	}
	applied, err = Migrate(context.Background(), path)
	if err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected no migrations on replay, got %v", applied)
	}
}

func TestNilStoreReportsNotConfigured(t *testing.T) {
	t.Parallel()

	var store *Store
	if _, err := store.ListCategories(context.Background()); err == nil {
		t.Fatal("expected error from nil store")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestCancelledContextIsRejected(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListProducts(ctx, storage.ProductQuery{PageSize: 10}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustPutCategory(t, store, "c2", "Skin Care", "skin-care")
	mustPutCategory(t, store, "c1", "Beard", "beard")

	categories, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	want := []storage.Category{
		{ID: "c1", Name: "Beard", Slug: "beard", CreatedAt: testNow},
		{ID: "c2", Name: "Skin Care", Slug: "skin-care", CreatedAt: testNow},
	}
	if diff := cmp.Diff(want, categories); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}

	if err := store.PutCategory(ctx, storage.Category{ID: "c3", Name: "beard", Slug: "beard"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate slug err = %v, want ErrAlreadyExists", err)
	}

	if err := store.DeleteCategory(ctx, "c1"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, err := store.GetCategory(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteCategory(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCategoryUncategorizesProducts(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustPutCategory(t, store, "c1", "Beard", "beard")
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Oil", PriceCents: 1200, CategoryID: "c1"})

	if err := store.DeleteCategory(ctx, "c1"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	product, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.CategoryID != "" {
		t.Fatalf("category id = %q, want empty", product.CategoryID)
	}
}

func TestPutProductRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.PutProduct(context.Background(), storage.Product{ID: "p1", Name: "Oil", CategoryID: "missing"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListProductsPaginatesByName(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for idx, name := range []string{"Cologne", "Aftershave", "Balm", "Balm", "Deodorant"} {
		mustPutProduct(t, store, storage.Product{ID: fmt.Sprintf("p%d", idx), Name: name, PriceCents: int64(100 * (idx + 1))})
	}

	var names []string
	var ids []string
	token := ""
	for pages := 0; pages < 5; pages++ {
		page, err := store.ListProducts(ctx, storage.ProductQuery{PageSize: 2, PageToken: token})
		if err != nil {
			t.Fatalf("list products: %v", err)
		}
		for _, product := range page.Products {
			names = append(names, product.Name)
			ids = append(ids, product.ID)
		}
		token = page.NextPageToken
		if token == "" {
			break
		}
	}
	if diff := cmp.Diff([]string{"Aftershave", "Balm", "Balm", "Cologne", "Deodorant"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p1", "p2", "p3", "p0", "p4"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestListProductsFilters(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustPutCategory(t, store, "c1", "Beard", "beard")
	mustPutCategory(t, store, "c2", "Hair", "hair")
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Beard Oil", PriceCents: 1500, Stock: 3, CategoryID: "c1"})
	mustPutProduct(t, store, storage.Product{ID: "p2", Name: "Beard Balm", PriceCents: 900, Stock: 0, CategoryID: "c1"})
	mustPutProduct(t, store, storage.Product{ID: "p3", Name: "Pomade", PriceCents: 2000, Stock: 8, CategoryID: "c2"})

	tests := []struct {
		name    string
		query   storage.ProductQuery
		wantIDs []string
	}{
		{name: "all", query: storage.ProductQuery{}, wantIDs: []string{"p2", "p1", "p3"}},
		{name: "by category slug", query: storage.ProductQuery{CategorySlug: "beard"}, wantIDs: []string{"p2", "p1"}},
		{name: "unknown slug", query: storage.ProductQuery{CategorySlug: "nope"}, wantIDs: nil},
		{name: "price range", query: storage.ProductQuery{Filter: "price_cents >= 1000 AND price_cents < 2000"}, wantIDs: []string{"p1"}},
		{name: "in stock", query: storage.ProductQuery{Filter: "stock > 0"}, wantIDs: []string{"p1", "p3"}},
		{name: "or", query: storage.ProductQuery{Filter: `name = "Pomade" OR stock = 0`}, wantIDs: []string{"p2", "p3"}},
		{name: "slug and filter", query: storage.ProductQuery{CategorySlug: "beard", Filter: "stock > 0"}, wantIDs: []string{"p1"}},
		{name: "not", query: storage.ProductQuery{Filter: `NOT category_id = "c1"`}, wantIDs: []string{"p3"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tc.query.PageSize = 10
			page, err := store.ListProducts(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("list products: %v", err)
			}
			var ids []string
			for _, product := range page.Products {
				ids = append(ids, product.ID)
			}
			if diff := cmp.Diff(tc.wantIDs, ids); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListProductsRejectsBadInput(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.ListProducts(ctx, storage.ProductQuery{PageSize: 10, Filter: "color = \"red\""}); !errors.Is(err, storage.ErrInvalidFilter) {
		t.Fatalf("unknown field err = %v, want ErrInvalidFilter", err)
	}
	if _, err := store.ListProducts(ctx, storage.ProductQuery{PageSize: 10, Filter: "price_cents >"}); !errors.Is(err, storage.ErrInvalidFilter) {
		t.Fatalf("syntax err = %v, want ErrInvalidFilter", err)
	}
	if _, err := store.ListProducts(ctx, storage.ProductQuery{PageSize: 10, PageToken: "%%%"}); !errors.Is(err, storage.ErrInvalidPageToken) {
		t.Fatalf("token err = %v, want ErrInvalidPageToken", err)
	}
	if _, err := store.ListProducts(ctx, storage.ProductQuery{}); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestPutProductKeepsRatingOnUpdate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustCreateUser(t, store, "u1", "a@example.com", "Ann")
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Oil", PriceCents: 1000})
	if _, err := store.AddReview(ctx, storage.Review{ID: "r1", ProductID: "p1", UserID: "u1", Rating: 4}); err != nil {
		t.Fatalf("add review: %v", err)
	}
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Beard Oil", PriceCents: 1100})

	product, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Name != "Beard Oil" || product.PriceCents != 1100 || product.Rating != 4 {
		t.Fatalf("product = %+v", product)
	}
}

func TestAddReviewRecomputesMeanRating(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustCreateUser(t, store, "u1", "a@example.com", "Ann")
	mustCreateUser(t, store, "u2", "b@example.com", "Ben")
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Oil", PriceCents: 1000})

	if rating, err := store.AddReview(ctx, storage.Review{ID: "r1", ProductID: "p1", UserID: "u1", Rating: 5, Comment: "great"}); err != nil || rating != 5 {
		t.Fatalf("first review = %v, %v", rating, err)
	}
	rating, err := store.AddReview(ctx, storage.Review{ID: "r2", ProductID: "p1", UserID: "u2", Rating: 2})
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if rating != 3.5 {
		t.Fatalf("rating = %v, want 3.5", rating)
	}
	product, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Rating != 3.5 {
		t.Fatalf("stored rating = %v, want 3.5", product.Rating)
	}

	if _, err := store.AddReview(ctx, storage.Review{ID: "r3", ProductID: "p1", UserID: "u1", Rating: 1}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate review err = %v, want ErrAlreadyExists", err)
	}
	if _, err := store.AddReview(ctx, storage.Review{ID: "r4", ProductID: "missing", UserID: "u1", Rating: 1}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing product err = %v, want ErrNotFound", err)
	}

	reviews, err := store.ListReviews(ctx, "p1")
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(reviews))
	}
	names := map[string]string{}
	for _, review := range reviews {
		names[review.ID] = review.UserName
	}
	if names["r1"] != "Ann" || names["r2"] != "Ben" {
		t.Fatalf("review names = %v", names)
	}
}

func TestDeleteProductCascades(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustCreateUser(t, store, "u1", "a@example.com", "Ann")
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Oil", PriceCents: 1000})
	if _, err := store.AddReview(ctx, storage.Review{ID: "r1", ProductID: "p1", UserID: "u1", Rating: 5}); err != nil {
		t.Fatalf("add review: %v", err)
	}
	if err := store.IncrementCartLine(ctx, "cart-1", "p1", 1, testNow); err != nil {
		t.Fatalf("add cart line: %v", err)
	}

	if err := store.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if reviews, err := store.ListReviews(ctx, "p1"); err != nil || len(reviews) != 0 {
		t.Fatalf("reviews after delete = %v, %v", reviews, err)
	}
	if lines, err := store.ListCartLines(ctx, "cart-1"); err != nil || len(lines) != 0 {
		t.Fatalf("cart after delete = %v, %v", lines, err)
	}
	if err := store.DeleteProduct(ctx, "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing err = %v, want ErrNotFound", err)
	}
}

func TestGetProductsSkipsMissing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Oil", PriceCents: 1000})
	found, err := store.GetProducts(context.Background(), []string{"p1", "nope"})
	if err != nil {
		t.Fatalf("get products: %v", err)
	}
	if len(found) != 1 || found["p1"].Name != "Oil" {
		t.Fatalf("found = %v", found)
	}
}

func TestCartLines(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustPutProduct(t, store, storage.Product{ID: "p1", Name: "Oil", PriceCents: 1000})
	mustPutProduct(t, store, storage.Product{ID: "p2", Name: "Balm", PriceCents: 500})

	steps := []func() error{
		func() error { return store.IncrementCartLine(ctx, "cart-1", "p1", 1, testNow) },
		func() error { return store.IncrementCartLine(ctx, "cart-1", "p2", 1, testNow.Add(time.Second)) },
		func() error { return store.IncrementCartLine(ctx, "cart-1", "p1", 1, testNow.Add(2*time.Second)) },
		func() error { return store.IncrementCartLine(ctx, "cart-2", "p2", 1, testNow) },
	}
	for idx, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", idx, err)
		}
	}

	lines, err := store.ListCartLines(ctx, "cart-1")
	if err != nil {
		t.Fatalf("list cart lines: %v", err)
	}
	type line struct {
		ID  string
		Qty int
	}
	var got []line
	for _, l := range lines {
		got = append(got, line{ID: l.Product.ID, Qty: l.Quantity})
	}
	if diff := cmp.Diff([]line{{"p1", 2}, {"p2", 1}}, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}

	if err := store.SetCartLineQuantity(ctx, "cart-1", "p1", 5, testNow); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := store.SetCartLineQuantity(ctx, "cart-1", "p2", 0, testNow); err != nil {
		t.Fatalf("set zero quantity: %v", err)
	}
	if err := store.SetCartLineQuantity(ctx, "cart-1", "p2", 3, testNow); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("set missing line err = %v, want ErrNotFound", err)
	}
	lines, err = store.ListCartLines(ctx, "cart-1")
	if err != nil {
		t.Fatalf("list cart lines: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("lines = %+v", lines)
	}

	if err := store.IncrementCartLine(ctx, "cart-1", "missing", 1, testNow); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing product err = %v, want ErrNotFound", err)
	}

	if err := store.ClearCart(ctx, "cart-1"); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if lines, _ := store.ListCartLines(ctx, "cart-1"); len(lines) != 0 {
		t.Fatalf("cart-1 not cleared: %+v", lines)
	}
	if lines, _ := store.ListCartLines(ctx, "cart-2"); len(lines) != 1 {
		t.Fatalf("cart-2 should be untouched, got %+v", lines)
	}
}

func TestOrders(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustCreateUser(t, store, "u1", "ann@example.com", "Ann")

	statuses := []string{"pending", "processing", "shipped", "delivered"}
	for idx := 0; idx < 7; idx++ {
		order := storage.Order{
			ID:         fmt.Sprintf("o%d", idx),
			SessionID:  fmt.Sprintf("cs_%d", idx),
			TotalCents: int64(1000 * (idx + 1)),
			Status:     statuses[idx%len(statuses)],
			CreatedAt:  testNow.Add(time.Duration(idx) * time.Minute),
			Items: []storage.OrderItem{
				{ProductID: "p1", Name: "Oil", UnitPriceCents: 1000, Quantity: idx + 1},
			},
		}
		if idx%2 == 0 {
			order.UserID = "u1"
		}
		if err := store.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order %d: %v", idx, err)
		}
	}
	if err := store.CreateOrder(ctx, storage.Order{ID: "dup", SessionID: "cs_0", Status: "pending"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate session err = %v, want ErrAlreadyExists", err)
	}

	order, err := store.GetOrderBySession(ctx, "cs_2")
	if err != nil {
		t.Fatalf("get order by session: %v", err)
	}
	if order.ID != "o2" || order.UserEmail != "ann@example.com" || len(order.Items) != 1 || order.Items[0].Quantity != 3 {
		t.Fatalf("order = %+v", order)
	}

	if err := store.UpdateOrderStatus(ctx, "o0", "processing", testNow); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := store.UpdateOrderStatus(ctx, "missing", "processing", testNow); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing err = %v, want ErrNotFound", err)
	}

	stats, err := store.OrderStats(ctx, statuses, 5)
	if err != nil {
		t.Fatalf("order stats: %v", err)
	}
	wantCounts := map[string]int{"pending": 1, "processing": 3, "shipped": 2, "delivered": 1}
	if diff := cmp.Diff(wantCounts, stats.ByStatus); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if stats.Total != 7 {
		t.Fatalf("total = %d, want 7", stats.Total)
	}
	var recent []string
	for _, o := range stats.Recent {
		recent = append(recent, o.ID)
	}
	if diff := cmp.Diff([]string{"o6", "o5", "o4", "o3", "o2"}, recent); diff != "" {
		t.Fatalf("recent mismatch (-want +got):\n%s", diff)
	}

	var all []string
	token := ""
	for {
		orders, next, err := store.ListOrders(ctx, 3, token)
		if err != nil {
			t.Fatalf("list orders: %v", err)
		}
		for _, o := range orders {
			all = append(all, o.ID)
		}
		if next == "" {
			break
		}
		token = next
	}
	if diff := cmp.Diff([]string{"o6", "o5", "o4", "o3", "o2", "o1", "o0"}, all); diff != "" {
		t.Fatalf("paged orders mismatch (-want +got):\n%s", diff)
	}
}

func TestContentStore(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for _, faq := range []storage.FAQ{
		{ID: "f2", Question: "Shipping?", Answer: "3-5 days", OrderIndex: 2},
		{ID: "f1", Question: "Returns?", Answer: "30 days", OrderIndex: 1},
	} {
		if err := store.PutFAQ(ctx, faq); err != nil {
			t.Fatalf("put faq: %v", err)
		}
	}
	faqs, err := store.ListFAQs(ctx)
	if err != nil {
		t.Fatalf("list faqs: %v", err)
	}
	if len(faqs) != 2 || faqs[0].ID != "f1" || faqs[1].ID != "f2" {
		t.Fatalf("faqs = %+v", faqs)
	}
	if err := store.DeleteFAQ(ctx, "f1"); err != nil {
		t.Fatalf("delete faq: %v", err)
	}
	if _, err := store.GetFAQ(ctx, "f1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted faq err = %v", err)
	}

	settings := []storage.Setting{
		{Key: "store_name", Value: "The Knack Shop", Category: "general", Label: "Store name", Type: "text"},
		{Key: "contact_email", Value: "help@example.com", Category: "contact", Label: "Contact email", Type: "email"},
		{Key: "theme", Value: "dark", Category: "appearance", Label: "Theme", Type: "select", Options: []string{"light", "dark"}},
	}
	for _, setting := range settings {
		if err := store.PutSetting(ctx, setting); err != nil {
			t.Fatalf("put setting: %v", err)
		}
	}
	got, err := store.ListSettings(ctx)
	if err != nil {
		t.Fatalf("list settings: %v", err)
	}
	var keys []string
	for _, setting := range got {
		keys = append(keys, setting.Key)
	}
	if diff := cmp.Diff([]string{"theme", "contact_email", "store_name"}, keys); diff != "" {
		t.Fatalf("settings order mismatch (-want +got):\n%s", diff)
	}
	theme, err := store.GetSetting(ctx, "theme")
	if err != nil {
		t.Fatalf("get setting: %v", err)
	}
	if diff := cmp.Diff(settings[2], theme, cmpopts.IgnoreFields(storage.Setting{}, "UpdatedAt")); diff != "" {
		t.Fatalf("setting mismatch (-want +got):\n%s", diff)
	}
	if err := store.DeleteSetting(ctx, "theme"); err != nil {
		t.Fatalf("delete setting: %v", err)
	}
	if err := store.DeleteSetting(ctx, "theme"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing setting err = %v", err)
	}
}

func TestContactDeliveryState(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	for idx := 0; idx < 3; idx++ {
		message := storage.ContactMessage{
			ID:             fmt.Sprintf("m%d", idx),
			Name:           "Ann",
			Email:          "ann@example.com",
			Message:        "hello",
			RecipientEmail: "help@example.com",
			CreatedAt:      testNow.Add(time.Duration(idx) * time.Minute),
		}
		if err := store.CreateContactMessage(ctx, message); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	due := testNow.Add(time.Hour)
	pending, err := store.ListPendingDeliveries(ctx, due, 3, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 3 || pending[0].ID != "m0" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := store.MarkContactMessageSent(ctx, "m0"); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if err := store.RecordDeliveryFailure(ctx, "m1", "smtp down", due.Add(time.Hour)); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	pending, err = store.ListPendingDeliveries(ctx, due, 3, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "m2" {
		t.Fatalf("pending after updates = %+v", pending)
	}

	failed, err := store.GetContactMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if failed.Attempts != 1 || failed.LastError != "smtp down" || failed.EmailSent {
		t.Fatalf("failed message = %+v", failed)
	}
	if pending, _ := store.ListPendingDeliveries(ctx, due.Add(2*time.Hour), 1, 10); len(pending) != 1 || pending[0].ID != "m2" {
		t.Fatalf("max attempts should exclude m1, got %+v", pending)
	}

	if err := store.MarkContactMessageRead(ctx, "m2"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	messages, err := store.ListContactMessages(ctx)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 3 || messages[0].ID != "m2" || !messages[0].Read {
		t.Fatalf("messages = %+v", messages)
	}
	if err := store.DeleteContactMessage(ctx, "m2"); err != nil {
		t.Fatalf("delete message: %v", err)
	}
	if err := store.MarkContactMessageRead(ctx, "m2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("mark deleted err = %v", err)
	}
}

func TestUsersAndRoles(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	mustCreateUser(t, store, "u1", "ann@example.com", "Ann")
	if err := store.CreateUser(ctx, storage.User{ID: "u2", Email: "ann@example.com", PasswordHash: "x"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate email err = %v, want ErrAlreadyExists", err)
	}

	user, err := store.GetUserByEmail(ctx, "  ANN@example.com ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if user.ID != "u1" || user.Role != "user" {
		t.Fatalf("user = %+v", user)
	}

	if err := store.SetUserRole(ctx, "u1", "admin"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if err := store.SetUserRole(ctx, "missing", "admin"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("set role missing err = %v, want ErrNotFound", err)
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Role != "admin" {
		t.Fatalf("users = %+v", users)
	}
	if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing err = %v", err)
	}
}
