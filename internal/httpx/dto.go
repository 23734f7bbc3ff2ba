package httpx

import "github.com/pedro664/TimTimBebidas-sub000/internal/domain"

type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CalculateShippingRequest struct {
	CEP string `json:"cep"`
}

type CartItemResponse struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
}

type CartResponse struct {
	Items      []CartItemResponse    `json:"items"`
	Total      float64               `json:"total"`
	ItemCount  int                   `json:"item_count"`
	Shipping   *domain.ShippingQuote `json:"shipping,omitempty"`
	GrandTotal float64               `json:"grand_total"`
}

type AddItemResponse struct {
	Added bool         `json:"added"`
	Cart  CartResponse `json:"cart"`
}

type UpdateQuantityResponse struct {
	Updated bool         `json:"updated"`
	Cart    CartResponse `json:"cart"`
}

type ProductResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

type CheckoutResponse struct {
	OrderID string  `json:"order_id"`
	Total   float64 `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
