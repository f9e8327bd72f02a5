package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/storegate/internal/testutil"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "svc", user)
		assert.Equal(t, "hunter2", pass)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "stripe", req.PaymentMethod)
		assert.True(t, req.SetPaid)
		require.Len(t, req.LineItems, 1)
		assert.Equal(t, 12345, req.LineItems[0].ProductID)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 421732,
			"number": "421732",
			"status": "processing",
			"total": "50.00",
			"currency": "USD",
			"payment_method": "stripe",
			"transaction_id": "pi_test123"
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "svc", "hunter2", testutil.NewTestLogger(t))
	order, err := c.CreateOrder(context.Background(), &OrderRequest{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Credit Card (Stripe)",
		SetPaid:            true,
		TransactionID:      "pi_test123",
		LineItems:          []LineItem{{ProductID: 12345, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, 421732, order.ID)
	assert.Equal(t, "421732", order.Number)
	assert.Equal(t, "processing", order.Status)
}

func TestCreateOrderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":"woocommerce_rest_invalid"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "svc", "hunter2", testutil.NewTestLogger(t))
	_, err := c.CreateOrder(context.Background(), &OrderRequest{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders/421732", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 421732,
			"number": "421732",
			"status": "completed",
			"total": "50.00",
			"line_items": [{"id": 1, "product_id": 12345, "name": "Widget", "quantity": 2, "total": "50.00"}]
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "svc", "hunter2", testutil.NewTestLogger(t))
	order, err := c.Order(context.Background(), 421732)
	require.NoError(t, err)

	assert.Equal(t, "completed", order.Status)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, "Widget", order.LineItems[0].Name)
}

func TestOrderNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":"woocommerce_rest_shop_order_invalid_id"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "svc", "hunter2", testutil.NewTestLogger(t))
	_, err := c.Order(context.Background(), 999999)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
