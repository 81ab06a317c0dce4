package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smallbiznis/inkpost/internal/observability/tracing"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultAPIBase = "https://api.stripe.com"
	providerName   = "stripe"
	requestTimeout = 12 * time.Second
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inkpost_payment_provider_requests_total",
	Help: "Requests sent to the payment provider by operation and outcome.",
}, []string{"provider", "operation", "outcome"})

type Config struct {
	SecretKey string
	APIBase   string
}

// Client talks to the Stripe REST API with form-encoded requests.
type Client struct {
	apiKey  string
	apiBase string
	client  *http.Client
	tracer  trace.Tracer
	log     *zap.Logger
}

var _ payment.Provider = (*Client)(nil)

func New(cfg Config, log *zap.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.SecretKey),
		apiBase: base,
		client:  &http.Client{Timeout: requestTimeout},
		tracer:  otel.Tracer("inkpost/payment"),
		log:     log.Named("payment.stripe"),
	}
}

type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type stripePaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Customer string `json:"customer"`
}

type stripeSubscriptionItem struct {
	ID    string `json:"id"`
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type stripeSubscription struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	Items              struct {
		Data []stripeSubscriptionItem `json:"data"`
	} `json:"items"`
}

func (c *Client) CreateCustomer(ctx context.Context, email, name string) (*payment.Customer, error) {
	values := url.Values{}
	values.Set("email", email)
	if strings.TrimSpace(name) != "" {
		values.Set("name", name)
	}

	var out stripeCustomer
	if err := c.doRequest(ctx, "create_customer", http.MethodPost, "/v1/customers", values, "", &out); err != nil {
		return nil, err
	}
	return &payment.Customer{ID: out.ID, Email: out.Email, Name: out.Name}, nil
}

func (c *Client) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	values := url.Values{}
	values.Set("customer", customerID)

	var out stripePaymentMethod
	return c.doRequest(ctx, "attach_payment_method", http.MethodPost,
		"/v1/payment_methods/"+url.PathEscape(paymentMethodID)+"/attach", values, "", &out)
}

func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	values := url.Values{}
	values.Set("invoice_settings[default_payment_method]", paymentMethodID)

	var out stripeCustomer
	return c.doRequest(ctx, "set_default_payment_method", http.MethodPost,
		"/v1/customers/"+url.PathEscape(customerID), values, "", &out)
}

func (c *Client) CreateSubscription(ctx context.Context, input payment.CreateSubscriptionInput) (*payment.Subscription, error) {
	values := url.Values{}
	values.Set("customer", input.CustomerID)
	values.Set("items[0][price]", input.PriceID)

	var out stripeSubscription
	if err := c.doRequest(ctx, "create_subscription", http.MethodPost, "/v1/subscriptions", values, input.IdempotencyKey, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*payment.Subscription, error) {
	var out stripeSubscription
	if err := c.doRequest(ctx, "retrieve_subscription", http.MethodGet,
		"/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, "", &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) UpdateSubscriptionItem(ctx context.Context, subscriptionID, itemID, priceID string) (*payment.Subscription, error) {
	values := url.Values{}
	values.Set("items[0][id]", itemID)
	values.Set("items[0][price]", priceID)

	var out stripeSubscription
	if err := c.doRequest(ctx, "update_subscription", http.MethodPost,
		"/v1/subscriptions/"+url.PathEscape(subscriptionID), values, "", &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Subscription, error) {
	var out stripeSubscription
	if err := c.doRequest(ctx, "cancel_subscription", http.MethodDelete,
		"/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, "", &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// CreateTestPaymentMethod creates a card payment method from Stripe's
// tok_visa test token. Only meaningful with a test mode key.
func (c *Client) CreateTestPaymentMethod(ctx context.Context) (*payment.PaymentMethod, error) {
	values := url.Values{}
	values.Set("type", "card")
	values.Set("card[token]", "tok_visa")

	var out stripePaymentMethod
	if err := c.doRequest(ctx, "create_payment_method", http.MethodPost, "/v1/payment_methods", values, "", &out); err != nil {
		return nil, err
	}
	return &payment.PaymentMethod{ID: out.ID, Type: out.Type, Status: "created"}, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	operation string,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
	out any,
) (err error) {
	ctx, span := c.tracer.Start(ctx, "stripe."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.SafeAttributes(
			attribute.String("payment.provider", providerName),
			attribute.String("payment.operation", operation),
		)...),
	)
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "payment provider request failed")
		}
		requestsTotal.WithLabelValues(providerName, operation, outcome).Inc()
		span.End()
	}()

	if c.apiKey == "" {
		return payment.ErrNotConfigured
	}

	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("stripe request failed", zap.String("operation", operation), zap.Error(err))
		return &payment.ProviderError{Operation: operation, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		perr := &payment.ProviderError{Operation: operation, StatusCode: resp.StatusCode, Message: "stripe_request_failed"}
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err == nil {
			if message := strings.TrimSpace(stripeErr.Error.Message); message != "" {
				perr.Message = message
			}
			perr.Code = stripeErr.Error.Code
		}
		c.log.Info("stripe rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("code", perr.Code),
		)
		return perr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &payment.ProviderError{Operation: operation, StatusCode: resp.StatusCode, Message: "stripe_response_invalid"}
	}
	return validateResponse(operation, out)
}

func validateResponse(operation string, out any) error {
	var id string
	switch v := out.(type) {
	case *stripeCustomer:
		id = v.ID
	case *stripePaymentMethod:
		id = v.ID
	case *stripeSubscription:
		id = v.ID
	}
	if id == "" {
		return &payment.ProviderError{Operation: operation, Message: "stripe_response_invalid"}
	}
	return nil
}

func (s stripeSubscription) toDomain() *payment.Subscription {
	sub := &payment.Subscription{
		ID:                 s.ID,
		CustomerID:         s.Customer,
		Status:             s.Status,
		CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		Items:              make([]payment.SubscriptionItem, 0, len(s.Items.Data)),
	}
	for _, item := range s.Items.Data {
		sub.Items = append(sub.Items, payment.SubscriptionItem{ID: item.ID, PriceID: item.Price.ID})
	}
	// Newer API versions report the billing period on items only.
	if len(s.Items.Data) > 0 {
		first := s.Items.Data[0]
		if sub.CurrentPeriodStart.IsZero() {
			sub.CurrentPeriodStart = unixTime(first.CurrentPeriodStart)
		}
		if sub.CurrentPeriodEnd.IsZero() {
			sub.CurrentPeriodEnd = unixTime(first.CurrentPeriodEnd)
		}
	}
	return sub
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
