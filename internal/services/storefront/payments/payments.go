// Package payments creates hosted checkout sessions and verifies provider
// webhooks.
package payments

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the webhook event for a paid checkout session.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidWebhook indicates a webhook whose signature or payload could not
// be verified.
var ErrInvalidWebhook = errors.New("invalid webhook")

// LineItem is one priced product in a checkout session.
type LineItem struct {
	Name            string
	Description     string
	ImageURL        string
	UnitAmountCents int64
	Quantity        int
}

// ShippingOption is a flat shipping rate offered on the hosted page.
type ShippingOption struct {
	DisplayName     string
	AmountCents     int64
	MinBusinessDays int
	MaxBusinessDays int
}

// SessionRequest describes a hosted checkout session.
type SessionRequest struct {
	Items            []LineItem
	SuccessURL       string
	CancelURL        string
	CustomerEmail    string
	AllowedCountries []string
	ShippingOptions  []ShippingOption
	Metadata         map[string]string
}

// Session is a created hosted checkout session.
type Session struct {
	ID  string
	URL string
}

// Event is a verified webhook event.
type Event struct {
	ID        string
	Type      string
	SessionID string
	Metadata  map[string]string
}

// Gateway talks to the hosted payment provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// StandardShipping returns the free and express options offered at checkout.
func StandardShipping() []ShippingOption {
	return []ShippingOption{
		{DisplayName: "Free shipping", AmountCents: 0, MinBusinessDays: 3, MaxBusinessDays: 5},
		{DisplayName: "Express shipping", AmountCents: 1500, MinBusinessDays: 1, MaxBusinessDays: 2},
	}
}

// ShippingCountries are the countries the hosted page collects addresses for.
func ShippingCountries() []string {
	return []string{"US", "CA", "GB"}
}
