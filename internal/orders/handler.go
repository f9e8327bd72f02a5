// Package orders exposes order details to the account area by proxying
// the commerce backend's order resource.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-labs/storegate/internal/api"
	"github.com/meridian-labs/storegate/internal/woocommerce"
)

// OrderFetcher is the commerce-backend operation the handler needs.
type OrderFetcher interface {
	Order(ctx context.Context, id int) (*woocommerce.Order, error)
}

// Handler serves order lookups.
type Handler struct {
	store  OrderFetcher
	logger *slog.Logger
}

// NewHandler wires the order lookup handler.
func NewHandler(store OrderFetcher, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Details is the normalized order shape returned to the front end.
type Details struct {
	ID            int                 `json:"id"`
	OrderNumber   string              `json:"orderNumber"`
	Status        string              `json:"status"`
	Date          string              `json:"date"`
	Total         string              `json:"total"`
	Subtotal      string              `json:"subtotal"`
	TotalTax      string              `json:"totalTax"`
	ShippingTotal string              `json:"shippingTotal"`
	DiscountTotal string              `json:"discountTotal"`
	Currency      string              `json:"currency"`
	PaymentMethod string              `json:"paymentMethod"`
	TransactionID string              `json:"transactionId,omitempty"`
	Items         []Item              `json:"items"`
	ShippingAddr  woocommerce.Address `json:"shippingAddress"`
	BillingAddr   woocommerce.Address `json:"billingAddress"`
}

// Item is one order line for display.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
	Image    string `json:"image,omitempty"`
}

// Get handles GET /api/orders/{orderID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "orderID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid Order ID",
			"Order ID must be a valid number")
		return
	}

	order, err := h.store.Order(r.Context(), id)
	if err != nil {
		var apiErr *woocommerce.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			api.RespondError(w, http.StatusNotFound, "Order Not Found",
				fmt.Sprintf("Order with ID %d was not found", id))
			return
		}
		h.logger.Error("order lookup failed", "order_id", id, "error", err)
		api.RespondError(w, http.StatusInternalServerError, "Server Error",
			"Unable to load order details")
		return
	}

	api.RespondJSON(w, http.StatusOK, toDetails(order))
}

func toDetails(order *woocommerce.Order) Details {
	var subtotal float64
	items := make([]Item, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		if v, err := strconv.ParseFloat(li.Subtotal, 64); err == nil {
			subtotal += v
		}
		item := Item{
			ID:       strconv.Itoa(li.ID),
			Name:     li.Name,
			Quantity: li.Quantity,
			Total:    li.Total,
		}
		if li.Image != nil {
			item.Image = li.Image.Src
		}
		items = append(items, item)
	}

	return Details{
		ID:            order.ID,
		OrderNumber:   order.Number,
		Status:        order.Status,
		Date:          order.DateCreated,
		Total:         order.Total,
		Subtotal:      strconv.FormatFloat(subtotal, 'f', 2, 64),
		TotalTax:      order.TotalTax,
		ShippingTotal: order.ShippingTotal,
		DiscountTotal: order.DiscountTotal,
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
		TransactionID: order.TransactionID,
		Items:         items,
		ShippingAddr:  order.Shipping,
		BillingAddr:   order.Billing,
	}
}
