// internal/tools/orders/lookup-order/models.go
package lookuporder

type Input struct {
	OrderID string `json:"order_id"`
}

type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is the customer-facing view of an order record.
type Order struct {
	OrderID           string  `json:"order_id"`
	Status            string  `json:"status"`
	CustomerName      string  `json:"customer_name"`
	Items             []Item  `json:"items"`
	Total             float64 `json:"total"`
	ShippingAddress   string  `json:"shipping_address"`
	EstimatedDelivery string  `json:"estimated_delivery"`
	TrackingNumber    *string `json:"tracking_number"`
}

type Output struct {
	Success bool   `json:"success"`
	Order   *Order `json:"order"`
	Message string `json:"message"`
}
