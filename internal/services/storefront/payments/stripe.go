package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/storefront/internal/platform/timeouts"
)

const currencyUSD = "usd"

// StripeConfig configures the Stripe gateway.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// BackendURL overrides the Stripe API base URL.
	BackendURL string
	HTTPClient *http.Client
}

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a gateway. The secret key is required.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("missing STRIPE_SECRET_KEY")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeouts.PaymentRequest,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	api := client.New(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeGateway{api: api, webhookSecret: cfg.WebhookSecret}, nil
}

// CreateCheckoutSession creates a card-payment Checkout session.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currencyUSD),
				ProductData: product,
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}
	for _, option := range req.ShippingOptions {
		params.ShippingOptions = append(params.ShippingOptions, &stripe.CheckoutSessionShippingOptionParams{
			ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
				Type:        stripe.String("fixed_amount"),
				DisplayName: stripe.String(option.DisplayName),
				FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
					Amount:   stripe.Int64(option.AmountCents),
					Currency: stripe.String(currencyUSD),
				},
				DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
					Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(int64(option.MinBusinessDays)),
					},
					Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
						Unit:  stripe.String("business_day"),
						Value: stripe.Int64(int64(option.MaxBusinessDays)),
					},
				},
			},
		})
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	return Session{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (Event, error) {
	if g.webhookSecret == "" {
		return Event{}, fmt.Errorf("%w: missing STRIPE_WEBHOOK_SECRET", ErrInvalidWebhook)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	out := Event{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("%w: decode checkout session: %v", ErrInvalidWebhook, err)
		}
		out.SessionID = session.ID
		out.Metadata = session.Metadata
	}
	return out, nil
}

// ProviderMessage extracts the provider's user-facing message from err.
func ProviderMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
