// Package payment implements payment confirmation: verify a completed
// charge with the payment provider, then create the matching order in the
// commerce backend.
//
// The flow carries a known gap: there is no idempotency key and no
// compensating action (refund) when order creation fails after a captured
// payment. A retried confirm call can create a duplicate order.
package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/meridian-labs/storegate/internal/api"
	"github.com/meridian-labs/storegate/internal/woocommerce"
)

// OrderCreator is the commerce-backend operation the handler needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req *woocommerce.OrderRequest) (*woocommerce.Order, error)
}

// Handler confirms payments and creates orders.
type Handler struct {
	intents IntentRetriever
	orders  OrderCreator
	logger  *slog.Logger
}

// NewHandler wires the confirm handler.
func NewHandler(intents IntentRetriever, orders OrderCreator, logger *slog.Logger) *Handler {
	return &Handler{intents: intents, orders: orders, logger: logger}
}

// Confirm handles POST /api/payment/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	// Attempt id ties the log lines of one confirmation together; it is
	// not an idempotency key.
	attempt := uuid.NewString()
	log := h.logger.With("attempt", attempt)

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}

	if req.PaymentIntentID == "" {
		api.RespondError(w, http.StatusBadRequest, "Missing Payment Intent",
			"Payment intent ID is required")
		return
	}
	if req.OrderData.ShippingAddress == nil || req.OrderData.BillingAddress == nil {
		api.RespondError(w, http.StatusBadRequest, "Missing Address",
			"Shipping and billing addresses are required")
		return
	}
	if len(req.CartItems) == 0 {
		api.RespondError(w, http.StatusBadRequest, "Empty Cart",
			"At least one cart item is required")
		return
	}

	intent, err := h.intents.Intent(r.Context(), req.PaymentIntentID)
	if err != nil {
		log.Error("payment intent retrieval failed",
			"payment_intent", req.PaymentIntentID, "error", err)
		api.RespondError(w, http.StatusBadRequest, "Payment Not Found",
			"Payment could not be verified")
		return
	}
	if intent.Status != IntentStatusSucceeded {
		log.Warn("payment intent not succeeded",
			"payment_intent", intent.ID, "status", intent.Status)
		api.RespondError(w, http.StatusBadRequest, "Payment Not Completed",
			"Payment has not been confirmed yet")
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), buildOrderRequest(&req, intent))
	if err != nil {
		// Payment is captured but no order exists. Nothing compensates
		// here; support reconciles from the logged intent id.
		log.Error("order creation failed after captured payment",
			"payment_intent", intent.ID, "error", err)
		api.RespondError(w, http.StatusInternalServerError, "Order Creation Failed",
			"Unable to confirm payment and create order. Please contact support with your payment reference.")
		return
	}

	log.Info("payment confirmed",
		"payment_intent", intent.ID, "order_id", order.ID, "total", order.Total)

	api.RespondJSON(w, http.StatusOK, ConfirmResponse{
		Success:   true,
		ClearCart: true,
		Order: ConfirmedOrder{
			ID:            order.ID,
			OrderNumber:   order.Number,
			Status:        order.Status,
			Total:         order.Total,
			Currency:      order.Currency,
			PaymentMethod: order.PaymentMethod,
			TransactionID: order.TransactionID,
		},
	})
}

// buildOrderRequest maps checkout input and the verified intent onto the
// WooCommerce order payload.
func buildOrderRequest(req *ConfirmRequest, intent *Intent) *woocommerce.OrderRequest {
	items := make([]woocommerce.LineItem, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, woocommerce.LineItem{
			ProductID: item.DatabaseID,
			Quantity:  qty,
		})
	}

	meta := []woocommerce.MetaData{
		{Key: "_stripe_intent_id", Value: intent.ID},
		{Key: "_stripe_amount", Value: strconv.FormatInt(intent.Amount, 10)},
	}
	if intent.ChargeID != "" {
		meta = append(meta, woocommerce.MetaData{Key: "_stripe_charge_id", Value: intent.ChargeID})
	}

	return &woocommerce.OrderRequest{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Credit Card (Stripe)",
		SetPaid:            true,
		TransactionID:      intent.ID,
		CustomerNote:       req.OrderData.OrderNotes,
		Billing:            toAddress(req.OrderData.BillingAddress),
		Shipping:           toAddress(req.OrderData.ShippingAddress),
		LineItems:          items,
		MetaData:           meta,
	}
}

func toAddress(in *AddressInput) woocommerce.Address {
	return woocommerce.Address{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Company:   in.Company,
		Address1:  in.Address1,
		Address2:  in.Address2,
		City:      in.City,
		State:     in.State,
		Postcode:  in.Postcode,
		Country:   in.Country,
		Email:     in.Email,
		Phone:     in.Phone,
	}
}
