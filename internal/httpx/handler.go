// Package httpx is the thin JSON adapter between HTTP clients and the
// session controller. The session id travels in the X-Session-Id
// header; a missing or malformed id starts a fresh session and the
// response header carries the id to keep.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pedro664/TimTimBebidas-sub000/internal/catalog"
	"github.com/pedro664/TimTimBebidas-sub000/internal/controller"
)

// SessionHeader carries the visitor's session id on every request and
// response.
const SessionHeader = "X-Session-Id"

type Handler struct {
	manager *controller.Manager
	catalog catalog.Catalog
}

func NewHandler(manager *controller.Manager, cat catalog.Catalog) *Handler {
	return &Handler{manager: manager, catalog: cat}
}

// session resolves the request's controller and echoes the session id
// back on the response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	ctrl, err := h.manager.Session(r.Context(), r.Header.Get(SessionHeader))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return nil, false
	}
	w.Header().Set(SessionHeader, ctrl.SessionID())
	return ctrl, true
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cartResponse(ctrl))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	added, err := ctrl.AddItem(r.Context(), req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AddItemResponse{Added: added, Cart: cartResponse(ctrl)})
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "")
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	updated := ctrl.UpdateQuantity(r.Context(), productID, req.Quantity)
	writeJSON(w, http.StatusOK, UpdateQuantityResponse{Updated: updated, Cart: cartResponse(ctrl)})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "")
		return
	}

	ctrl.RemoveItem(r.Context(), productID)
	writeJSON(w, http.StatusOK, cartResponse(ctrl))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	ctrl.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, cartResponse(ctrl))
}

func (h *Handler) CalculateShipping(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CalculateShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	result := ctrl.CalculateShipping(r.Context(), req.CEP)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetShipping(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	quote, exists := ctrl.GetShipping()
	if !exists {
		writeError(w, http.StatusNotFound, "no_shipping_quote", "")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) ClearShipping(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	ctrl.ClearShipping(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}

	order, err := ctrl.Checkout(r.Context())
	if errors.Is(err, controller.ErrEmptyCart) {
		writeError(w, http.StatusConflict, "empty_cart", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "handoff_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, CheckoutResponse{OrderID: order.OrderID, Total: order.Total})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: ctrl.SessionID()})
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.session(w, r)
	if !ok {
		return
	}
	ctrl.ClearSession(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func cartResponse(ctrl *controller.Controller) CartResponse {
	snapshot := ctrl.Cart()
	items := make([]CartItemResponse, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		items = append(items, CartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Stock:     item.Stock,
		})
	}

	resp := CartResponse{
		Items:      items,
		Total:      snapshot.Total(),
		ItemCount:  snapshot.ItemCount(),
		GrandTotal: ctrl.GrandTotal(),
	}
	if quote, exists := ctrl.GetShipping(); exists {
		q := quote
		resp.Shipping = &q
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
