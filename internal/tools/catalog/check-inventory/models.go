package checkinventory

type Input struct {
	ProductID string `json:"product_id"`
	Location  string `json:"location,omitempty"`
}

type Product struct {
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	Location string `json:"location"`
}

type Output struct {
	Success bool     `json:"success"`
	Product *Product `json:"product"`
	InStock bool     `json:"in_stock"`
	Message string   `json:"message"`
}
