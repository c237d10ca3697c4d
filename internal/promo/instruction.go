package promo

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CartItem is the minimal line-item view the instruction parser needs.
type CartItem struct {
	Price    float64
	Quantity int
}

// instructionRule pairs a pattern with its discount handler. Rules are
// evaluated in order and the first match wins, so more specific patterns
// must come before more general ones ("10% off" must not be captured by
// the plain amount-off rule).
type instructionRule struct {
	pattern *regexp.Regexp
	apply   func(match []string, items []CartItem, orderTotal float64) float64
}

var instructionRules = []instructionRule{
	{
		pattern: regexp.MustCompile(`buy (\d+) get (\d+) free`),
		apply:   applyBuyXGetYFree,
	},
	{
		pattern: regexp.MustCompile(`(\d+(\.\d+)?)\s*%\s*(off|discount)`),
		apply: func(match []string, _ []CartItem, orderTotal float64) float64 {
			percent, _ := strconv.ParseFloat(match[1], 64)
			return orderTotal * percent / 100
		},
	},
	{
		pattern: regexp.MustCompile(`₹?\s*(\d+(\.\d+)?)\s*(off|discount)`),
		apply: func(match []string, _ []CartItem, orderTotal float64) float64 {
			amount, _ := strconv.ParseFloat(match[1], 64)
			if amount > orderTotal {
				return orderTotal
			}
			return amount
		},
	},
}

// ParseInstruction interprets a promotional instruction string ("Buy 2 Get
// 1 Free", "10% off", "₹50 off") against the cart and returns the discount
// amount. Unmatched instructions and empty carts yield zero, never an
// error.
func ParseInstruction(instruction string, items []CartItem, orderTotal float64) float64 {
	if len(items) == 0 {
		return 0
	}

	normalized := strings.ToLower(instruction)
	for _, rule := range instructionRules {
		if match := rule.pattern.FindStringSubmatch(normalized); match != nil {
			return rule.apply(match, items, orderTotal)
		}
	}

	return 0
}

// applyBuyXGetYFree gives away exactly Y units once the cart holds at least
// X+Y units, charging nothing for the cheapest ones. The free-unit count
// does not scale with multiples of the bundle; an 8-unit cart under
// "buy 2 get 1 free" still gets a single free unit.
// TODO: confirm with the promotions team whether multiples of the bundle
// should each earn Y free units before changing this.
func applyBuyXGetYFree(match []string, items []CartItem, _ float64) float64 {
	buy, _ := strconv.Atoi(match[1])
	free, _ := strconv.Atoi(match[2])
	minItems := buy + free

	totalQuantity := 0
	for _, item := range items {
		totalQuantity += item.Quantity
	}
	if totalQuantity < minItems {
		return 0
	}

	sorted := make([]CartItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	discount := 0.0
	remaining := free
	for _, item := range sorted {
		if remaining <= 0 {
			break
		}
		freeFromThisItem := item.Quantity
		if freeFromThisItem > remaining {
			freeFromThisItem = remaining
		}
		discount += item.Price * float64(freeFromThisItem)
		remaining -= freeFromThisItem
	}

	return discount
}
