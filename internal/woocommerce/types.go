package woocommerce

// Address is a WooCommerce billing or shipping block. Email and Phone are
// only meaningful on billing.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem references a product by its database id.
type LineItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// MetaData is a key/value pair attached to an order.
type MetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OrderRequest is the POST /wp-json/wc/v3/orders payload.
type OrderRequest struct {
	PaymentMethod      string     `json:"payment_method"`
	PaymentMethodTitle string     `json:"payment_method_title"`
	SetPaid            bool       `json:"set_paid"`
	TransactionID      string     `json:"transaction_id,omitempty"`
	CustomerNote       string     `json:"customer_note,omitempty"`
	Billing            Address    `json:"billing"`
	Shipping           Address    `json:"shipping"`
	LineItems          []LineItem `json:"line_items"`
	MetaData           []MetaData `json:"meta_data,omitempty"`
}

// Order is the subset of the WooCommerce order resource the gateway reads.
type Order struct {
	ID                 int             `json:"id"`
	Number             string          `json:"number"`
	OrderKey           string          `json:"order_key"`
	Status             string          `json:"status"`
	DateCreated        string          `json:"date_created"`
	Total              string          `json:"total"`
	TotalTax           string          `json:"total_tax"`
	ShippingTotal      string          `json:"shipping_total"`
	DiscountTotal      string          `json:"discount_total"`
	Currency           string          `json:"currency"`
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	TransactionID      string          `json:"transaction_id"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	LineItems          []OrderLineItem `json:"line_items"`
}

// OrderLineItem is a line of a created order.
type OrderLineItem struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	Total     string `json:"total"`
	Image     *Image `json:"image,omitempty"`
}

// Image is a product image reference.
type Image struct {
	Src string `json:"src"`
}
