package httpapi

import (
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/domain/cart"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/catalog"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

type categoryView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCategoryView(category storage.Category) categoryView {
	return categoryView{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		ImageURL:    category.ImageURL,
		CreatedAt:   category.CreatedAt,
	}
}

type productView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ImageURL    string    `json:"image_url"`
	CategoryID  string    `json:"category_id"`
	Stock       int       `json:"stock"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductView(product storage.Product) productView {
	return productView{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		ImageURL:    product.ImageURL,
		CategoryID:  product.CategoryID,
		Stock:       product.Stock,
		Rating:      catalog.RoundRating(product.Rating),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

type productPageView struct {
	Products      []productView `json:"products"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type reviewView struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func newReviewView(review storage.Review) reviewView {
	return reviewView{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		UserName:  review.UserName,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}

type productDetailView struct {
	productView
	Reviews []reviewView `json:"reviews"`
}

type cartLineView struct {
	Product  productView `json:"product"`
	Quantity int         `json:"quantity"`
}

type cartView struct {
	Items      []cartLineView `json:"items"`
	TotalCents int64          `json:"total_cents"`
	Count      int            `json:"count"`
}

func newCartView(c cart.Cart) cartView {
	items := make([]cartLineView, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, cartLineView{Product: newProductView(line.Product), Quantity: line.Quantity})
	}
	return cartView{Items: items, TotalCents: c.Total(), Count: c.Count()}
}

type orderItemView struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

type orderView struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id,omitempty"`
	UserEmail  string          `json:"user_email,omitempty"`
	UserName   string          `json:"user_name,omitempty"`
	SessionID  string          `json:"session_id"`
	TotalCents int64           `json:"total_cents"`
	Status     string          `json:"status"`
	Items      []orderItemView `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func newOrderView(record storage.Order) orderView {
	items := make([]orderItemView, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, orderItemView{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return orderView{
		ID:         record.ID,
		UserID:     record.UserID,
		UserEmail:  record.UserEmail,
		UserName:   record.UserName,
		SessionID:  record.SessionID,
		TotalCents: record.TotalCents,
		Status:     record.Status,
		Items:      items,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func newOrderViews(records []storage.Order) []orderView {
	views := make([]orderView, 0, len(records))
	for _, record := range records {
		views = append(views, newOrderView(record))
	}
	return views
}

type faqView struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

func newFAQView(faq storage.FAQ) faqView {
	return faqView{
		ID:         faq.ID,
		Question:   faq.Question,
		Answer:     faq.Answer,
		OrderIndex: faq.OrderIndex,
		CreatedAt:  faq.CreatedAt,
	}
}

type settingView struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Category    string    `json:"category"`
	Label       string    `json:"label"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Options     []string  `json:"options"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newSettingView(setting storage.Setting) settingView {
	options := setting.Options
	if options == nil {
		options = []string{}
	}
	return settingView{
		Key:         setting.Key,
		Value:       setting.Value,
		Category:    setting.Category,
		Label:       setting.Label,
		Type:        setting.Type,
		Description: setting.Description,
		Options:     options,
		UpdatedAt:   setting.UpdatedAt,
	}
}

type messageView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Message        string    `json:"message"`
	RecipientEmail string    `json:"recipient_email"`
	EmailSent      bool      `json:"email_sent"`
	Read           bool      `json:"read"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func newMessageView(message storage.ContactMessage) messageView {
	return messageView{
		ID:             message.ID,
		Name:           message.Name,
		Email:          message.Email,
		Message:        message.Message,
		RecipientEmail: message.RecipientEmail,
		EmailSent:      message.EmailSent,
		Read:           message.Read,
		Attempts:       message.Attempts,
		LastError:      message.LastError,
		CreatedAt:      message.CreatedAt,
	}
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(user storage.User) userView {
	return userView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

type dashboardView struct {
	TotalOrders    int            `json:"total_orders"`
	OrdersByStatus map[string]int `json:"orders_by_status"`
	RecentOrders   []orderView    `json:"recent_orders"`
}
