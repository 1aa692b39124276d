package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/storefront/internal/platform/pagination"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

const productColumnsSQL = `p.id, p.name, p.description, p.price_cents, p.image_url,
       COALESCE(p.category_id, ''), p.stock, p.rating, p.created_at, p.updated_at`

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]storage.Category, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, slug, description, image_url, created_at
		   FROM categories
		  ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []storage.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one category by ID.
func (s *Store) GetCategory(ctx context.Context, id string) (storage.Category, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Category{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, slug, description, image_url, created_at
		   FROM categories
		  WHERE id = ?`,
		strings.TrimSpace(id),
	)
	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Category{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Category{}, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// PutCategory inserts or replaces a category by ID.
func (s *Store) PutCategory(ctx context.Context, category storage.Category) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(category.ID) == "" {
		return fmt.Errorf("category id is required")
	}
	createdAt := category.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, description, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   slug = excluded.slug,
		   description = excluded.description,
		   image_url = excluded.image_url`,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.ImageURL,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Products in it become uncategorized.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(result, "delete category")
}

// ListProducts returns one page of products ordered by name then ID.
func (s *Store) ListProducts(ctx context.Context, query storage.ProductQuery) (storage.ProductPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ProductPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.ProductPage{}, fmt.Errorf("page size must be greater than zero")
	}
	filter, err := parseProductFilter(query.Filter)
	if err != nil {
		return storage.ProductPage{}, err
	}

	var (
		where  []string
		params []any
	)
	if slug := strings.TrimSpace(query.CategorySlug); slug != "" {
		where = append(where, "p.category_id = (SELECT id FROM categories WHERE slug = ?)")
		params = append(params, slug)
	}
	if filter.Clause != "" {
		where = append(where, filter.Clause)
		params = append(params, filter.Params...)
	}
	if query.PageToken != "" {
		keys, err := pagination.DecodeToken(query.PageToken, 2)
		if err != nil {
			return storage.ProductPage{}, fmt.Errorf("%w: %v", storage.ErrInvalidPageToken, err)
		}
		where = append(where, "(p.name > ? OR (p.name = ? AND p.id > ?))")
		params = append(params, keys[0], keys[0], keys[1])
	}

	statement := "SELECT " + productColumnsSQL + " FROM products p"
	if len(where) > 0 {
		statement += " WHERE " + strings.Join(where, " AND ")
	}
	statement += " ORDER BY p.name ASC, p.id ASC LIMIT ?"
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	page := storage.ProductPage{Products: make([]storage.Product, 0, query.PageSize)}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
		}
		page.Products = append(page.Products, product)
	}
	if err := rows.Err(); err != nil {
		return storage.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	if len(page.Products) > query.PageSize {
		last := page.Products[query.PageSize-1]
		page.NextPageToken = pagination.EncodeToken(last.Name, last.ID)
		page.Products = page.Products[:query.PageSize]
	}
	return page, nil
}

// GetProduct returns one product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (storage.Product, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Product{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+productColumnsSQL+" FROM products p WHERE p.id = ?",
		strings.TrimSpace(id),
	)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Product{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// GetProducts returns the products found for ids keyed by ID. Missing IDs
// are absent from the map.
func (s *Store) GetProducts(ctx context.Context, ids []string) (map[string]storage.Product, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	found := make(map[string]storage.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	placeholders := make([]string, len(ids))
	params := make([]any, len(ids))
	for i, productID := range ids {
		placeholders[i] = "?"
		params[i] = productID
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+productColumnsSQL+" FROM products p WHERE p.id IN ("+strings.Join(placeholders, ", ")+")",
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("get products: %w", err)
		}
		found[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return found, nil
}

// PutProduct inserts or replaces a product by ID. The stored rating is kept
// on update; it only changes through AddReview.
func (s *Store) PutProduct(ctx context.Context, product storage.Product) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	now := s.clock()
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := product.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO products (
		   id, name, description, price_cents, image_url, category_id,
		   stock, rating, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   price_cents = excluded.price_cents,
		   image_url = excluded.image_url,
		   category_id = excluded.category_id,
		   stock = excluded.stock,
		   updated_at = excluded.updated_at`,
		product.ID,
		product.Name,
		product.Description,
		product.PriceCents,
		product.ImageURL,
		nullableString(product.CategoryID),
		product.Stock,
		product.Rating,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %s: %w", product.CategoryID, storage.ErrNotFound)
		}
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product along with its reviews and cart lines.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return requireAffected(result, "delete product")
}

// ListReviews returns a product's reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, productID string) ([]storage.Review, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT r.id, r.product_id, r.user_id, COALESCE(u.name, ''), r.rating, r.comment, r.created_at
		   FROM reviews r
		   LEFT JOIN users u ON u.id = r.user_id
		  WHERE r.product_id = ?
		  ORDER BY r.created_at DESC, r.id ASC`,
		strings.TrimSpace(productID),
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []storage.Review
	for rows.Next() {
		var review storage.Review
		var createdAt int64
		if err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.UserName,
			&review.Rating,
			&review.Comment,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		review.CreatedAt = fromMillis(createdAt)
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// AddReview inserts a review and recomputes the product's mean rating.
func (s *Store) AddReview(ctx context.Context, review storage.Review) (float64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	var rating float64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, review.ProductID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check product: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			review.ID,
			review.ProductID,
			review.UserID,
			review.Rating,
			review.Comment,
			toMillis(createdAt),
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("insert review: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT AVG(rating) FROM reviews WHERE product_id = ?`,
			review.ProductID,
		).Scan(&rating); err != nil {
			return fmt.Errorf("average rating: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET rating = ?, updated_at = ? WHERE id = ?`,
			rating,
			toMillis(createdAt),
			review.ProductID,
		); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rating, nil
}

func scanCategory(row scanner) (storage.Category, error) {
	var category storage.Category
	var createdAt int64
	if err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.ImageURL,
		&createdAt,
	); err != nil {
		return storage.Category{}, err
	}
	category.CreatedAt = fromMillis(createdAt)
	return category, nil
}

func scanProduct(row scanner) (storage.Product, error) {
	var product storage.Product
	var createdAt, updatedAt int64
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.PriceCents,
		&product.ImageURL,
		&product.CategoryID,
		&product.Stock,
		&product.Rating,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Product{}, err
	}
	product.CreatedAt = fromMillis(createdAt)
	product.UpdatedAt = fromMillis(updatedAt)
	return product, nil
}
