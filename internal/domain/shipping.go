package domain

// ShippingQuote is the last accepted quote, persisted alongside the cart.
// Invariants: IsFree implies Cost == 0, and !IsValid implies Cost == 0.
type ShippingQuote struct {
	CEP    string  `json:"cep"`
	City   string  `json:"city"`
	Cost   float64 `json:"cost"`
	IsFree bool    `json:"is_free"`
	Valid  bool    `json:"is_valid"`
}

// ShippingResult is the outcome of one shipping calculation request.
// CEP holds the normalized 8-digit code the request resolved.
type ShippingResult struct {
	CEP            string  `json:"cep"`
	IsAvailable    bool    `json:"is_available"`
	Cost           float64 `json:"cost"`
	IsFree         bool    `json:"is_free"`
	EstimatedHours int     `json:"estimated_hours"`
	TotalWeight    float64 `json:"total_weight"`
	City           string  `json:"city"`
	Message        string  `json:"message"`
}

// Quote converts an available result into the quote stored with the cart.
func (r ShippingResult) Quote() ShippingQuote {
	return ShippingQuote{
		CEP:    r.CEP,
		City:   r.City,
		Cost:   r.Cost,
		IsFree: r.IsFree,
		Valid:  r.IsAvailable,
	}
}
