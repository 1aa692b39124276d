// Package storage defines persistence contracts for storefront state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidFilter indicates a product filter expression could not be
	// parsed or references an unknown field.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidPageToken indicates a page token that this store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// Category groups products for browsing.
type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
	ImageURL    string
	CreatedAt   time.Time
}

// Product is one sellable catalog item. Prices are USD cents.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	ImageURL    string
	CategoryID  string
	Stock       int
	Rating      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductQuery selects one page of products.
type ProductQuery struct {
	// CategorySlug restricts results to one category when set.
	CategorySlug string
	// Filter is an AIP-160 expression over name, category_id, price_cents,
	// stock and rating.
	Filter    string
	PageSize  int
	PageToken string
}

// ProductPage stores one page of products ordered by name.
type ProductPage struct {
	Products      []Product
	NextPageToken string
}

// Review is one customer rating of a product.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// CartLine is one product held in a cart.
type CartLine struct {
	Product  Product
	Quantity int
}

// Order records one hosted checkout session and its fulfilment status.
type Order struct {
	ID         string
	UserID     string
	SessionID  string
	TotalCents int64
	Status     string
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// UserEmail and UserName are populated on reads that join the owner.
	UserEmail string
	UserName  string
}

// OrderItem freezes the catalog price of one purchased product.
type OrderItem struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int
}

// OrderStats summarizes orders for the admin dashboard.
type OrderStats struct {
	Total    int
	ByStatus map[string]int
	Recent   []Order
}

// FAQ is one question shown on the help page.
type FAQ struct {
	ID         string
	Question   string
	Answer     string
	OrderIndex int
	CreatedAt  time.Time
}

// Setting is one admin-editable site setting. Values are stored as strings
// regardless of Type.
type Setting struct {
	Key         string
	Value       string
	Category    string
	Label       string
	Type        string
	Description string
	Options     []string
	UpdatedAt   time.Time
}

// ContactMessage is one contact form submission and its delivery state.
type ContactMessage struct {
	ID             string
	Name           string
	Email          string
	Message        string
	RecipientEmail string
	EmailSent      bool
	Read           bool
	Attempts       int
	LastError      string
	NextAttemptAt  time.Time
	CreatedAt      time.Time
}

// User is one registered account. Role is "user" when no role row exists.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CatalogStore persists categories, products and reviews.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	PutCategory(ctx context.Context, category Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context, query ProductQuery) (ProductPage, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]Product, error)
	PutProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListReviews(ctx context.Context, productID string) ([]Review, error)
	// AddReview inserts review and recomputes the product's mean rating in
	// the same transaction. It returns the new rating.
	AddReview(ctx context.Context, review Review) (float64, error)
}

// CartStore persists anonymous cart lines.
type CartStore interface {
	ListCartLines(ctx context.Context, cartID string) ([]CartLine, error)
	// IncrementCartLine adds delta to the line quantity, creating the line
	// when absent.
	IncrementCartLine(ctx context.Context, cartID, productID string, delta int, at time.Time) error
	SetCartLineQuantity(ctx context.Context, cartID, productID string, quantity int, at time.Time) error
	RemoveCartLine(ctx context.Context, cartID, productID string) error
	ClearCart(ctx context.Context, cartID string) error
}

// OrderStore persists orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	GetOrderBySession(ctx context.Context, sessionID string) (Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string, at time.Time) error
	OrderStats(ctx context.Context, statuses []string, recent int) (OrderStats, error)
	ListOrders(ctx context.Context, pageSize int, pageToken string) ([]Order, string, error)
}

// ContentStore persists FAQs and site settings.
type ContentStore interface {
	ListFAQs(ctx context.Context) ([]FAQ, error)
	GetFAQ(ctx context.Context, id string) (FAQ, error)
	PutFAQ(ctx context.Context, faq FAQ) error
	DeleteFAQ(ctx context.Context, id string) error

	ListSettings(ctx context.Context) ([]Setting, error)
	GetSetting(ctx context.Context, key string) (Setting, error)
	PutSetting(ctx context.Context, setting Setting) error
	DeleteSetting(ctx context.Context, key string) error
}

// ContactStore persists contact messages and their delivery state.
type ContactStore interface {
	CreateContactMessage(ctx context.Context, message ContactMessage) error
	GetContactMessage(ctx context.Context, id string) (ContactMessage, error)
	ListContactMessages(ctx context.Context) ([]ContactMessage, error)
	MarkContactMessageRead(ctx context.Context, id string) error
	DeleteContactMessage(ctx context.Context, id string) error

	// ListPendingDeliveries returns unsent messages due at or before now
	// with fewer than maxAttempts attempts, oldest first.
	ListPendingDeliveries(ctx context.Context, now time.Time, maxAttempts, limit int) ([]ContactMessage, error)
	MarkContactMessageSent(ctx context.Context, id string) error
	RecordDeliveryFailure(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error
}

// UserStore persists accounts and roles.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetUserRole(ctx context.Context, userID, role string) error
}

// Store is the full persistence surface used by the storefront.
type Store interface {
	CatalogStore
	CartStore
	OrderStore
	ContentStore
	ContactStore
	UserStore
	Close() error
}
