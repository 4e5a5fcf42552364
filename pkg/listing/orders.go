package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pirate-pro/get-resume-direction/pkg/client"
)

// Order defaults applied before validation.
const (
	DefaultDeliveryType = "onsite_resume_delivery"
	DefaultCurrency     = "CNY"
	MaxOrderQuantity    = 20
)

// ErrInvalidOrder is wrapped by the error returned for an order that fails
// local validation.
var ErrInvalidOrder = errors.New("invalid order")

// WithDefaults fills the optional fields the API would default.
func (r CreateOrderRequest) WithDefaults() CreateOrderRequest {
	if r.DeliveryType == "" {
		r.DeliveryType = DefaultDeliveryType
	}
	if r.Quantity == 0 {
		r.Quantity = 1
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	return r
}

// Validate checks the request against the API's field limits. The error is
// an *client.APIError of class validation wrapping ErrInvalidOrder.
func (r CreateOrderRequest) Validate() error {
	var problems []string
	check := func(field, value string, minLen, maxLen int) {
		n := utf8.RuneCountInString(value)
		switch {
		case n < minLen:
			problems = append(problems, fmt.Sprintf("%s must be at least %d characters", field, minLen))
		case n > maxLen:
			problems = append(problems, fmt.Sprintf("%s must be at most %d characters", field, maxLen))
		}
	}

	check("user_name", r.UserName, 1, 64)
	check("phone", r.Phone, 6, 32)
	check("wechat_id", r.WechatID, 0, 64)
	check("school_name", r.SchoolName, 0, 255)
	check("major", r.Major, 0, 128)
	check("resume_url", r.ResumeURL, 0, 1024)
	check("target_company_name", r.TargetCompanyName, 0, 255)
	check("target_source_url", r.TargetSourceURL, 0, 1024)
	check("currency", r.Currency, 0, 8)

	if r.Quantity < 1 || r.Quantity > MaxOrderQuantity {
		problems = append(problems, fmt.Sprintf("quantity must be between 1 and %d", MaxOrderQuantity))
	}
	if r.AmountCents != nil && *r.AmountCents < 0 {
		problems = append(problems, "amount_cents must not be negative")
	}
	if r.TargetJobID == nil && r.TargetEventID == nil && r.TargetCompanyName == "" {
		problems = append(problems, "a target job, event or company is required")
	}

	if len(problems) == 0 {
		return nil
	}
	return &client.APIError{
		Class:   client.ErrorClassValidation,
		Message: strings.Join(problems, "; "),
		Err:     ErrInvalidOrder,
	}
}

// CreateOrder submits an order. Invalid requests are rejected before any
// network call. The submission is never retried and nothing is applied
// locally: only after the API confirms it are the cached order lists
// invalidated so subscribed views refetch.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("Order rejected by validation")
		return nil, err
	}

	var created CreatedOrder
	if err := s.client.Post(ctx, EndpointOrders, req, &created); err != nil {
		s.logger.Error().
			Err(err).
			Str("phone", maskPhone(req.Phone)).
			Msg("Order submission failed")
		return nil, err
	}

	invalidated := s.cache.InvalidateEndpoint(EndpointOrders)
	s.logger.Info().
		Int64("order_id", created.ID).
		Str("order_no", created.OrderNo).
		Int("invalidated", invalidated).
		Msg("Order created")

	return &created, nil
}

// maskPhone keeps the last four digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
