package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/storegate/internal/testutil"
	"github.com/meridian-labs/storegate/internal/woocommerce"
)

type fakeStore struct {
	order *woocommerce.Order
	err   error
}

func (f *fakeStore) Order(_ context.Context, _ int) (*woocommerce.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func get(t *testing.T, store OrderFetcher, orderID string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h := NewHandler(store, testutil.NewTestLogger(t))
	r.Get("/api/orders/{orderID}", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/"+orderID, nil))
	return w
}

func TestGetOrder(t *testing.T) {
	w := get(t, &fakeStore{order: &woocommerce.Order{
		ID:            421732,
		Number:        "421732",
		Status:        "completed",
		Total:         "75.00",
		Currency:      "USD",
		PaymentMethod: "stripe",
		LineItems: []woocommerce.OrderLineItem{
			{ID: 1, ProductID: 12345, Name: "Widget", Quantity: 2, Subtotal: "50.00", Total: "50.00"},
			{ID: 2, ProductID: 67890, Name: "Gadget", Quantity: 1, Subtotal: "25.00", Total: "25.00"},
		},
	}}, "421732")

	require.Equal(t, http.StatusOK, w.Code)
	var d Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, 421732, d.ID)
	assert.Equal(t, "75.00", d.Subtotal)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "Widget", d.Items[0].Name)
}

func TestGetOrderInvalidID(t *testing.T) {
	w := get(t, &fakeStore{}, "not-a-number")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrderNotFound(t *testing.T) {
	w := get(t, &fakeStore{err: &woocommerce.APIError{StatusCode: http.StatusNotFound}}, "999999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderBackendError(t *testing.T) {
	w := get(t, &fakeStore{err: errors.New("connection refused")}, "421732")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
