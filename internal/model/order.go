package model

// OrderItem is a single line of an order request.
type OrderItem struct {
	FoodID   string `json:"foodId"`
	Quantity int    `json:"quantity"`
}

// DeliveryAddress is the address sent with an order.
type DeliveryAddress struct {
	Country    string   `json:"country"`
	City       string   `json:"city"`
	District   string   `json:"district"`
	Line       string   `json:"line"`
	PostalCode string   `json:"postalCode"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// OrderRequest is one logical order submitted on behalf of a buyer.
type OrderRequest struct {
	SellerID        string          `json:"sellerId"`
	Items           []OrderItem     `json:"items"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	IdempotencyKey  string          `json:"-"`
}

// OrderConfirmation is returned by the marketplace after an order is accepted.
type OrderConfirmation struct {
	OrderID string `json:"orderId"`
}

// PlacedOrder records an accepted order for the run summary.
type PlacedOrder struct {
	OrderID        string      `json:"orderId"`
	BuyerID        string      `json:"buyerId"`
	SellerID       string      `json:"sellerId"`
	Items          []OrderItem `json:"items"`
	IdempotencyKey string      `json:"idempotencyKey"`
}
