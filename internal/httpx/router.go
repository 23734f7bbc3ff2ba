package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/products", handler.ListProducts)

	r.Get("/cart", handler.GetCart)
	r.Delete("/cart", handler.ClearCart)
	r.Post("/cart/items", handler.AddItem)
	r.Patch("/cart/items/{productID}", handler.UpdateQuantity)
	r.Delete("/cart/items/{productID}", handler.RemoveItem)

	r.Post("/shipping", handler.CalculateShipping)
	r.Get("/shipping", handler.GetShipping)
	r.Delete("/shipping", handler.ClearShipping)

	r.Post("/checkout", handler.Checkout)

	r.Get("/session", handler.GetSession)
	r.Delete("/session", handler.ClearSession)

	return r
}
