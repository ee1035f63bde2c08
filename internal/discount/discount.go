// Package discount resolves discount codes to price ratios and applies them.
package discount

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vyrodovalexey/products-api/internal/model"
)

// Built-in discount code.
const (
	DefaultCode  = "DUPA"
	DefaultRatio = 0.8
)

// pricePlaces is the number of decimal places discounted prices are rounded to.
const pricePlaces = 2

// Discount configuration errors.
var (
	ErrInvalidRatio = errors.New("discount ratio must be greater than 0 and at most 1")
	ErrInvalidEntry = errors.New("invalid discount entry, expected CODE:ratio")
)

// Catalog is a read-only mapping from uppercase discount code to ratio.
type Catalog struct {
	ratios map[string]decimal.Decimal
}

// New builds a catalog from code/ratio pairs. Codes are normalized to upper case.
func New(entries map[string]float64) (*Catalog, error) {
	ratios := make(map[string]decimal.Decimal, len(entries))

	for code, ratio := range entries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, ErrInvalidEntry
		}
		if ratio <= 0 || ratio > 1 {
			return nil, fmt.Errorf("code %s: %w", code, ErrInvalidRatio)
		}
		ratios[code] = decimal.NewFromFloat(ratio)
	}

	return &Catalog{ratios: ratios}, nil
}

// Default returns the catalog holding only the built-in code.
func Default() *Catalog {
	c, _ := New(map[string]float64{DefaultCode: DefaultRatio})
	return c
}

// WithDefaults builds a catalog from the built-in code plus extra entries.
// Extra entries override the built-in ratio for the same code.
func WithDefaults(extra map[string]float64) (*Catalog, error) {
	entries := map[string]float64{DefaultCode: DefaultRatio}
	for code, ratio := range extra {
		entries[strings.ToUpper(strings.TrimSpace(code))] = ratio
	}
	return New(entries)
}

// RatioFor returns the ratio for code, matched case-insensitively.
// Unknown or empty codes report false.
func (c *Catalog) RatioFor(code string) (float64, bool) {
	ratio, ok := c.lookup(code)
	if !ok {
		return 0, false
	}
	f, _ := ratio.Float64()
	return f, true
}

// Apply returns a copy of p with the discount for code applied.
// The boolean reports whether the code resolved.
func (c *Catalog) Apply(code string, p model.Product) (model.Product, bool) {
	ratio, ok := c.lookup(code)
	if !ok {
		return p, false
	}

	p.Price = discounted(p.Price, ratio)
	return p, true
}

// Codes returns the known codes in sorted order.
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.ratios))
	for code := range c.ratios {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (c *Catalog) lookup(code string) (decimal.Decimal, bool) {
	if c == nil || code == "" {
		return decimal.Decimal{}, false
	}
	ratio, ok := c.ratios[strings.ToUpper(code)]
	return ratio, ok
}

// discounted multiplies price by ratio and rounds half away from zero to two
// decimal places. The product is computed on the shortest decimal form of
// both operands, so 1.01 * 0.5 yields 0.51.
func discounted(price float64, ratio decimal.Decimal) float64 {
	f, _ := decimal.NewFromFloat(price).Mul(ratio).Round(pricePlaces).Float64()
	return f
}

// ParseCodes parses a configuration string in the format "CODE1:0.8,CODE2:0.5".
// An empty string yields an empty map.
func ParseCodes(config string) (map[string]float64, error) {
	codes := make(map[string]float64)

	trimmed := strings.TrimSpace(config)
	if trimmed == "" {
		return codes, nil
	}

	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q: %w", entry, ErrInvalidEntry)
		}

		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if code == "" {
			return nil, fmt.Errorf("%q: %w", entry, ErrInvalidEntry)
		}

		ratio, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", entry, ErrInvalidEntry)
		}
		if ratio <= 0 || ratio > 1 {
			return nil, fmt.Errorf("code %s: %w", code, ErrInvalidRatio)
		}

		codes[code] = ratio
	}

	return codes, nil
}
