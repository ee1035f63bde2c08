package catalog

import (
	"strings"

	"github.com/vyrodovalexey/products-api/internal/model"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// fallbackPage is returned whenever page or limit is not a positive integer.
func fallbackPage() model.PagedResult {
	return model.PagedResult{
		Page:    DefaultPage,
		Limit:   DefaultLimit,
		Next:    nil,
		Results: []model.Product{},
	}
}

// ParsePagination resolves raw page and limit parameters. An absent parameter
// takes its default; a supplied one must coerce to a positive integer,
// otherwise ok is false.
func ParsePagination(page, limit model.Optional[string]) (p, l int, ok bool) {
	p, pageOK := parseParam(page, DefaultPage)
	l, limitOK := parseParam(limit, DefaultLimit)

	if !pageOK || !limitOK || p < 1 || l < 1 {
		return 0, 0, false
	}

	return p, l, true
}

func parseParam(raw model.Optional[string], def int) (int, bool) {
	if !raw.Set {
		return def, true
	}
	if raw.Null {
		return 0, false
	}
	return parseLeadingInt(raw.Value)
}

// maxParam caps coerced parameters so page*limit arithmetic cannot overflow.
const maxParam = 1 << 31

// parseLeadingInt reads an optionally signed run of decimal digits after
// leading whitespace and ignores whatever follows, so "2abc" is 2 and "1.9" is 1.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if n < maxParam {
			n = n*10 + int(r-'0')
		}
		digits++
	}

	if digits == 0 {
		return 0, false
	}
	if n > maxParam {
		n = maxParam
	}
	if negative {
		n = -n
	}

	return n, true
}

// Paginate returns the requested page of products. Next is set only when
// more products exist beyond this page.
func Paginate(products []model.Product, page, limit int) model.PagedResult {
	if page < 1 || limit < 1 {
		return fallbackPage()
	}

	total := len(products)
	start := (page - 1) * limit
	end := start + limit

	results := []model.Product{}
	if start < total {
		results = append(results, products[start:min(end, total)]...)
	}

	var next *int
	if total > limit*page {
		n := page + 1
		next = &n
	}

	return model.PagedResult{
		Page:    page,
		Limit:   limit,
		Next:    next,
		Results: results,
	}
}
