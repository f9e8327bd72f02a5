package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/storegate/internal/testutil"
	"github.com/meridian-labs/storegate/internal/woocommerce"
)

type fakeIntents struct {
	intent *Intent
	err    error
	calls  int
}

func (f *fakeIntents) Intent(_ context.Context, _ string) (*Intent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

type fakeOrders struct {
	order    *woocommerce.Order
	err      error
	requests []*woocommerce.OrderRequest
}

func (f *fakeOrders) CreateOrder(_ context.Context, req *woocommerce.OrderRequest) (*woocommerce.Order, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func succeededIntent() *Intent {
	return &Intent{
		ID:       "pi_test123",
		Status:   IntentStatusSucceeded,
		Amount:   5000,
		Currency: "usd",
		ChargeID: "ch_test456",
	}
}

func createdOrder() *woocommerce.Order {
	return &woocommerce.Order{
		ID:            421732,
		Number:        "421732",
		Status:        "processing",
		Total:         "50.00",
		Currency:      "USD",
		PaymentMethod: "stripe",
		TransactionID: "pi_test123",
	}
}

const validBody = `{
	"paymentIntentId": "pi_test123",
	"orderData": {
		"shippingAddress": {
			"firstName": "John", "lastName": "Doe", "address1": "123 Test St",
			"city": "Test City", "state": "CA", "postcode": "12345",
			"country": "US", "email": "test@example.com", "phone": "555-0123"
		},
		"billingAddress": {
			"firstName": "John", "lastName": "Doe", "address1": "123 Test St",
			"city": "Test City", "state": "CA", "postcode": "12345",
			"country": "US", "email": "test@example.com"
		}
	},
	"cartItems": [
		{"databaseId": 12345, "name": "Test Product", "price": "50.00", "quantity": 1}
	]
}`

func confirm(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/payment/confirm", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Confirm(w, r)
	return w
}

func TestConfirmCreatesOrder(t *testing.T) {
	intents := &fakeIntents{intent: succeededIntent()}
	orders := &fakeOrders{order: createdOrder()}
	h := NewHandler(intents, orders, testutil.NewTestLogger(t))

	w := confirm(t, h, validBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConfirmResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.ClearCart)
	assert.Equal(t, 421732, resp.Order.ID)
	assert.Equal(t, "421732", resp.Order.OrderNumber)
	assert.Equal(t, "processing", resp.Order.Status)
	assert.Equal(t, "pi_test123", resp.Order.TransactionID)

	// The order payload links back to the intent and is marked paid.
	require.Len(t, orders.requests, 1)
	sent := orders.requests[0]
	assert.True(t, sent.SetPaid)
	assert.Equal(t, "pi_test123", sent.TransactionID)
	require.Len(t, sent.LineItems, 1)
	assert.Equal(t, 12345, sent.LineItems[0].ProductID)
	assert.Equal(t, 1, sent.LineItems[0].Quantity)
	assert.Equal(t, "John", sent.Billing.FirstName)
	assert.Equal(t, "US", sent.Shipping.Country)
}

func TestConfirmValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `not-json`},
		{"missing intent id", `{"orderData":{"shippingAddress":{},"billingAddress":{}},"cartItems":[{"databaseId":1,"quantity":1}]}`},
		{"missing addresses", `{"paymentIntentId":"pi_1","cartItems":[{"databaseId":1,"quantity":1}]}`},
		{"empty cart", `{"paymentIntentId":"pi_1","orderData":{"shippingAddress":{},"billingAddress":{}},"cartItems":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intents := &fakeIntents{intent: succeededIntent()}
			orders := &fakeOrders{order: createdOrder()}
			h := NewHandler(intents, orders, testutil.NewTestLogger(t))

			w := confirm(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, intents.calls, "provider must not be called on invalid input")
			assert.Empty(t, orders.requests)
		})
	}
}

func TestConfirmIntentRetrievalFails(t *testing.T) {
	intents := &fakeIntents{err: errors.New("no such payment_intent")}
	orders := &fakeOrders{order: createdOrder()}
	h := NewHandler(intents, orders, testutil.NewTestLogger(t))

	w := confirm(t, h, validBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orders.requests)
}

func TestConfirmIntentNotSucceeded(t *testing.T) {
	intent := succeededIntent()
	intent.Status = "requires_payment_method"
	intents := &fakeIntents{intent: intent}
	orders := &fakeOrders{order: createdOrder()}
	h := NewHandler(intents, orders, testutil.NewTestLogger(t))

	w := confirm(t, h, validBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orders.requests, "no order for unconfirmed payment")
}

func TestConfirmOrderCreationFails(t *testing.T) {
	intents := &fakeIntents{intent: succeededIntent()}
	orders := &fakeOrders{err: &woocommerce.APIError{StatusCode: http.StatusInternalServerError}}
	h := NewHandler(intents, orders, testutil.NewTestLogger(t))

	w := confirm(t, h, validBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "contact support")
}

// TestConfirmIsNotIdempotent pins the current behavior: the flow has no
// idempotency key, so replaying the same intent creates a second order.
// If this test starts failing because deduplication was added, the change
// is an improvement; update the test, not the other way around.
func TestConfirmIsNotIdempotent(t *testing.T) {
	intents := &fakeIntents{intent: succeededIntent()}
	orders := &fakeOrders{order: createdOrder()}
	h := NewHandler(intents, orders, testutil.NewTestLogger(t))

	require.Equal(t, http.StatusOK, confirm(t, h, validBody).Code)
	require.Equal(t, http.StatusOK, confirm(t, h, validBody).Code)

	assert.Len(t, orders.requests, 2, "same paymentIntentId accepted twice")
}
