// Package shipping prices delivery for a cart: it validates the postal
// code against the coverage area through an external address lookup and
// applies the weight-tiered rate.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pedro664/TimTimBebidas-sub000/internal/domain"
	"github.com/pedro664/TimTimBebidas-sub000/internal/shipping/cep"
)

const (
	// BottleWeightKg is the shipping weight of one bottle.
	BottleWeightKg = 1.5
	// FreeShippingThreshold is the subtotal at which shipping is free.
	FreeShippingThreshold = 200.0
	// BaseCost covers the first bottle's weight.
	BaseCost = 15.0
	// CostPerAdditionalKg is charged per started kilogram beyond the first bottle.
	CostPerAdditionalKg = 5.0
	// DeliveryEstimateHours is the fixed delivery estimate.
	DeliveryEstimateHours = 2
)

// CoveredCities is the delivery coverage area.
var CoveredCities = []string{"Recife", "Olinda", "Jaboatão dos Guararapes", "Camaragibe"}

const (
	msgInvalidCEP    = "CEP inválido. Informe um CEP com 8 dígitos."
	msgCEPNotFound   = "CEP não encontrado. Verifique o número informado."
	msgLookupFailure = "Não foi possível consultar o CEP agora. Tente novamente em instantes."
	msgInternalError = "Não foi possível calcular o frete. Tente novamente."
)

// AddressLookup is the external collaborator that resolves an 8-digit
// postal code. Implementations return cep.ErrNotFound for unknown codes.
type AddressLookup interface {
	Lookup(ctx context.Context, code string) (*cep.Address, error)
}

// Validation is the outcome of checking a postal code against the
// coverage area. Message is user-facing and set whenever IsValid is false.
type Validation struct {
	IsValid bool
	CEP     string
	Address *cep.Address
	Message string
}

type Calculator struct {
	lookup AddressLookup
	logger *slog.Logger
}

func NewCalculator(lookup AddressLookup, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{lookup: lookup, logger: logger}
}

// ValidateArea normalizes the code, resolves it, and checks the city
// against the coverage set. Lookup failures degrade to an invalid
// result with a retry hint; no error propagates to the caller.
func (c *Calculator) ValidateArea(ctx context.Context, rawCEP string) Validation {
	code := digitsOnly(rawCEP)
	if len(code) != 8 {
		return Validation{CEP: code, Message: msgInvalidCEP}
	}

	addr, err := c.lookup.Lookup(ctx, code)
	if errors.Is(err, cep.ErrNotFound) {
		return Validation{CEP: code, Message: msgCEPNotFound}
	}
	if err != nil {
		c.logger.Warn("CEP lookup failed", "cep", code, "error", err)
		return Validation{CEP: code, Message: msgLookupFailure}
	}

	if !cityIsCovered(addr.City) {
		return Validation{
			CEP:     code,
			Address: addr,
			Message: fmt.Sprintf("Ainda não entregamos em %s. Atendemos: %s.",
				addr.City, strings.Join(CoveredCities, ", ")),
		}
	}
	return Validation{IsValid: true, CEP: code, Address: addr}
}

// ComputeWeight returns the cart's shipping weight in kilograms.
func ComputeWeight(cart domain.Cart) float64 {
	return float64(cart.ItemCount()) * BottleWeightKg
}

// ComputeCost prices the delivery: free above the subtotal threshold,
// otherwise the base cost plus a per-started-kilogram charge for weight
// beyond the first bottle.
func ComputeCost(weightKg, subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	additional := math.Max(0, weightKg-BottleWeightKg)
	return BaseCost + math.Ceil(additional)*CostPerAdditionalKg
}

// Calculate runs one full quote request. It never returns an error;
// every failure mode resolves to an unavailable result with a
// user-facing message.
func (c *Calculator) Calculate(ctx context.Context, rawCEP string, cart domain.Cart) (result domain.ShippingResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("shipping calculation panicked", "cep", rawCEP, "panic", r)
			result = domain.ShippingResult{Message: msgInternalError}
		}
	}()

	validation := c.ValidateArea(ctx, rawCEP)
	if !validation.IsValid {
		result = domain.ShippingResult{CEP: validation.CEP, Message: validation.Message}
		if validation.Address != nil {
			result.City = validation.Address.City
		}
		return result
	}

	subtotal := cart.Total()
	weight := ComputeWeight(cart)
	cost := ComputeCost(weight, subtotal)

	result = domain.ShippingResult{
		CEP:            validation.CEP,
		IsAvailable:    true,
		Cost:           cost,
		IsFree:         cost == 0,
		EstimatedHours: DeliveryEstimateHours,
		TotalWeight:    weight,
		City:           validation.Address.City,
	}
	if result.IsFree {
		result.Message = fmt.Sprintf("Frete grátis para %s! Entrega em até %d horas.",
			result.City, DeliveryEstimateHours)
	} else {
		result.Message = fmt.Sprintf("Entrega em %s em até %d horas.",
			result.City, DeliveryEstimateHours)
	}
	return result
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cityIsCovered matches by exact set membership after normalization:
// lowercase with diacritics stripped, so "JABOATÃO DOS GUARARAPES" and
// "jaboatao dos guararapes" are the same city.
func cityIsCovered(city string) bool {
	normalized := normalizeCity(city)
	for _, covered := range CoveredCities {
		if normalized == normalizeCity(covered) {
			return true
		}
	}
	return false
}

var diacriticsStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeCity(city string) string {
	stripped, _, err := transform.String(diacriticsStripper, city)
	if err != nil {
		stripped = city
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}
