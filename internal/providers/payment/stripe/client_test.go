package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	method string
	path   string
	form   url.Values
	header http.Header
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var recorded []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		recorded = append(recorded, recordedRequest{method: r.Method, path: r.URL.Path, form: form, header: r.Header.Clone()})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(Config{SecretKey: "sk_test_123", APIBase: srv.URL}, zap.NewNop()), &recorded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func subscriptionPayload(id, status, price string) map[string]any {
	return map[string]any{
		"id":                   id,
		"customer":             "cus_1",
		"status":               status,
		"current_period_start": 1700000000,
		"current_period_end":   1702592000,
		"cancel_at_period_end": false,
		"items": map[string]any{
			"data": []map[string]any{{"id": "si_1", "price": map[string]any{"id": price}}},
		},
	}
}

func TestCreateCustomer(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "cus_1", "email": "ana@example.com", "name": "Ana Lee"})
	})

	customer, err := client.CreateCustomer(context.Background(), "ana@example.com", "Ana Lee")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", customer.ID)

	require.Len(t, *recorded, 1)
	req := (*recorded)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/v1/customers", req.path)
	assert.Equal(t, "ana@example.com", req.form.Get("email"))
	assert.Equal(t, "Ana Lee", req.form.Get("name"))
	assert.Equal(t, "Bearer sk_test_123", req.header.Get("Authorization"))
	assert.Equal(t, "application/x-www-form-urlencoded", req.header.Get("Content-Type"))
}

func TestCreateSubscriptionSendsItemsAndIdempotencyKey(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, subscriptionPayload("sub_1", "active", "price_a"))
	})

	sub, err := client.CreateSubscription(context.Background(), payment.CreateSubscriptionInput{
		CustomerID:     "cus_1",
		PriceID:        "price_a",
		IdempotencyKey: "subscription:create:1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "price_a", sub.PlanID())
	assert.Equal(t, int64(1702592000), sub.CurrentPeriodEnd.Unix())

	req := (*recorded)[0]
	assert.Equal(t, "cus_1", req.form.Get("customer"))
	assert.Equal(t, "price_a", req.form.Get("items[0][price]"))
	assert.Equal(t, "subscription:create:1", req.header.Get("Idempotency-Key"))
}

func TestUpdateSubscriptionItem(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, subscriptionPayload("sub_1", "active", "price_b"))
	})

	sub, err := client.UpdateSubscriptionItem(context.Background(), "sub_1", "si_1", "price_b")
	require.NoError(t, err)
	assert.Equal(t, "price_b", sub.PlanID())

	req := (*recorded)[0]
	assert.Equal(t, "/v1/subscriptions/sub_1", req.path)
	assert.Equal(t, "si_1", req.form.Get("items[0][id]"))
	assert.Equal(t, "price_b", req.form.Get("items[0][price]"))
}

func TestCancelSubscriptionUsesDelete(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, subscriptionPayload("sub_1", "canceled", "price_a"))
	})

	sub, err := client.CancelSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "canceled", sub.Status)
	assert.Equal(t, http.MethodDelete, (*recorded)[0].method)
}

func TestPeriodFallsBackToFirstItem(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     "sub_2",
			"status": "active",
			"items": map[string]any{
				"data": []map[string]any{{
					"id":                   "si_9",
					"price":                map[string]any{"id": "price_a"},
					"current_period_start": 1700000000,
					"current_period_end":   1702592000,
				}},
			},
		})
	})

	sub, err := client.RetrieveSubscription(context.Background(), "sub_2")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), sub.CurrentPeriodStart.Unix())
	assert.Equal(t, int64(1702592000), sub.CurrentPeriodEnd.Unix())
}

func TestProviderErrorMessageIsVerbatim(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error": map[string]any{"message": "Your card was declined.", "code": "card_declined"},
		})
	})

	_, err := client.CreateSubscription(context.Background(), payment.CreateSubscriptionInput{CustomerID: "cus_1", PriceID: "price_a"})
	require.Error(t, err)

	var perr *payment.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Your card was declined.", perr.Message)
	assert.Equal(t, "card_declined", perr.Code)
	assert.Equal(t, http.StatusPaymentRequired, perr.StatusCode)
	assert.Equal(t, "Your card was declined.", err.Error())
}

func TestUndecodableErrorBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	})

	err := client.SetDefaultPaymentMethod(context.Background(), "cus_1", "pm_1")
	require.Error(t, err)
	assert.Equal(t, "stripe_request_failed", err.Error())
}

func TestMissingSecretKey(t *testing.T) {
	client := New(Config{}, nil)
	_, err := client.CreateCustomer(context.Background(), "ana@example.com", "")
	assert.ErrorIs(t, err, payment.ErrNotConfigured)
}

func TestCreateTestPaymentMethod(t *testing.T) {
	client, recorded := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "pm_1", "type": "card"})
	})

	pm, err := client.CreateTestPaymentMethod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pm_1", pm.ID)
	assert.Equal(t, "tok_visa", (*recorded)[0].form.Get("card[token]"))
}
