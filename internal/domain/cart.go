package domain

// CartItem is a snapshot of a product at add-time plus the quantity held.
// Stock is the ceiling captured when the product entered the cart; the
// invariant Quantity <= Stock holds after every mutation.
type CartItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

// Cart is an ordered list of items, unique by product id.
type Cart struct {
	Items []CartItem `json:"items"`
}

// Total is the cart subtotal, recomputed from the items on every call.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities across all items.
func (c Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IndexOf returns the position of the item with the given product id,
// or -1 when the product is not in the cart.
func (c Cart) IndexOf(productID int64) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
