package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNotConfigured = errors.New("payment processor is not configured")

type IntentRequest struct {
	Amount   int64
	Currency string
	OrderID  int64
	Billing  models.BillingDetails
}

// Intent — то, что нужно клиенту для завершения оплаты
type Intent struct {
	ID           string
	ClientSecret string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{sc: client.New(secretKey, backends)}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(fmt.Sprintf("Order #%d - Purchase of goods", req.OrderID)),
		Shipping: &stripe.ShippingDetailsParams{
			Name: stripe.String(req.Billing.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(req.Billing.Address),
				City:       stripe.String(req.Billing.City),
				PostalCode: stripe.String(req.Billing.PostalCode),
				Country:    stripe.String(req.Billing.Country),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("orderId", strconv.FormatInt(req.OrderID, 10))
	params.AddMetadata("customerName", req.Billing.Name)

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// DisabledGateway используется без STRIPE_SECRET_KEY
type DisabledGateway struct{}

func (DisabledGateway) CreateIntent(context.Context, IntentRequest) (*Intent, error) {
	return nil, ErrNotConfigured
}
