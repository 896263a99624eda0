package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	pkgkafka "github.com/Djamauk/himalayanpinksalt.online/pkg/kafka"
)

// Kafka topics for storefront domain events.
const (
	TopicOrderPlaced        = "storefront.checkout.order_placed"
	TopicPaymentMethodSaved = "storefront.account.payment_method_saved"
	TopicAddressChanged     = "storefront.account.address_changed"
)

const (
	AggregateTypeCheckout = "checkout"
	AggregateTypeAccount  = "account"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront-service"

// OrderPlacedData is the payload for an order_placed event. Card data is
// never part of the payload; only the tokenized method id appears when a
// card was saved during checkout.
type OrderPlacedData struct {
	SessionID       string            `json:"session_id"`
	UserID          string            `json:"user_id"`
	Items           []domain.LineItem `json:"items"`
	Subtotal        int64             `json:"subtotal"`
	Shipping        int64             `json:"shipping"`
	Tax             int64             `json:"tax"`
	Discount        int64             `json:"discount"`
	Total           int64             `json:"total"`
	Coupon          string            `json:"coupon,omitempty"`
	SavedMethodID   string            `json:"saved_method_id,omitempty"`
	PaymentKind     string            `json:"payment_kind"`
	ShippingOption  string            `json:"shipping_option"`
	DeliveryCity    string            `json:"delivery_city"`
	DeliveryCountry string            `json:"delivery_country"`
}

// PaymentMethodSavedData is the payload for a payment_method_saved event.
type PaymentMethodSavedData struct {
	UserID   string       `json:"user_id"`
	MethodID string       `json:"method_id"`
	Brand    domain.Brand `json:"brand"`
	Last4    string       `json:"last4"`
}

// AddressChangedData is the payload for an address_changed event.
type AddressChangedData struct {
	UserID    string `json:"user_id"`
	AddressID string `json:"address_id"`
	Action    string `json:"action"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishOrderPlaced publishes an order_placed event for a completed session.
func (p *Producer) PublishOrderPlaced(ctx context.Context, data OrderPlacedData) error {
	event, err := pkgkafka.NewEvent(TopicOrderPlaced, data.SessionID, AggregateTypeCheckout, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order_placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order_placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order_placed event",
		slog.String("session_id", data.SessionID),
		slog.String("user_id", data.UserID),
	)
	return nil
}

// PublishPaymentMethodSaved publishes a payment_method_saved event.
func (p *Producer) PublishPaymentMethodSaved(ctx context.Context, data PaymentMethodSavedData) error {
	event, err := pkgkafka.NewEvent(TopicPaymentMethodSaved, data.UserID, AggregateTypeAccount, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create payment_method_saved event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentMethodSaved, event); err != nil {
		return fmt.Errorf("publish payment_method_saved event: %w", err)
	}

	p.logger.DebugContext(ctx, "published payment_method_saved event",
		slog.String("user_id", data.UserID),
		slog.String("method_id", data.MethodID),
	)
	return nil
}

// PublishAddressChanged publishes an address_changed event.
func (p *Producer) PublishAddressChanged(ctx context.Context, data AddressChangedData) error {
	event, err := pkgkafka.NewEvent(TopicAddressChanged, data.UserID, AggregateTypeAccount, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create address_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAddressChanged, event); err != nil {
		return fmt.Errorf("publish address_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published address_changed event",
		slog.String("user_id", data.UserID),
		slog.String("address_id", data.AddressID),
		slog.String("action", data.Action),
	)
	return nil
}
