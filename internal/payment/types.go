package payment

import "context"

// IntentStatusSucceeded is the only payment state an order may be created
// from.
const IntentStatusSucceeded = "succeeded"

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID       string
	Status   string
	Amount   int64 // minor units
	Currency string
	ChargeID string
}

// IntentRetriever looks up a payment intent at the payment provider.
type IntentRetriever interface {
	Intent(ctx context.Context, id string) (*Intent, error)
}

// AddressInput is the address shape submitted by the checkout client.
type AddressInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// CartItemInput is one checkout line. Fields beyond the product id and
// quantity are accepted but ignored; the commerce backend reprices.
type CartItemInput struct {
	DatabaseID int    `json:"databaseId"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
}

// ConfirmRequest is the POST /api/payment/confirm body.
type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	OrderData       struct {
		ShippingAddress *AddressInput `json:"shippingAddress"`
		BillingAddress  *AddressInput `json:"billingAddress"`
		OrderNotes      string        `json:"orderNotes"`
	} `json:"orderData"`
	CartItems []CartItemInput `json:"cartItems"`
}

// ConfirmedOrder is the normalized order summary returned to the client.
type ConfirmedOrder struct {
	ID            int    `json:"id"`
	OrderNumber   string `json:"orderNumber"`
	Status        string `json:"status"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
}

// ConfirmResponse is the success payload. ClearCart tells the caller to
// drop client-side cart state.
type ConfirmResponse struct {
	Success   bool           `json:"success"`
	ClearCart bool           `json:"clearCart"`
	Order     ConfirmedOrder `json:"order"`
}
