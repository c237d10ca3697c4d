package promo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		items       []CartItem
		orderTotal  float64
		want        float64
	}{
		{
			name:        "buy 2 get 1 free with exactly enough items",
			instruction: "Buy 2 Get 1 Free",
			items:       []CartItem{{Price: 100, Quantity: 3}},
			orderTotal:  300,
			want:        100,
		},
		{
			name:        "buy 2 get 1 free below threshold",
			instruction: "Buy 2 Get 1 Free",
			items:       []CartItem{{Price: 100, Quantity: 2}},
			orderTotal:  200,
			want:        0,
		},
		{
			name:        "cheapest units become the free ones",
			instruction: "buy 1 get 2 free",
			items: []CartItem{
				{Price: 300, Quantity: 1},
				{Price: 50, Quantity: 1},
				{Price: 120, Quantity: 1},
			},
			orderTotal: 470,
			want:       170, // 50 + 120
		},
		{
			name:        "free units do not scale with bundle multiples",
			instruction: "Buy 2 Get 1 Free",
			items:       []CartItem{{Price: 100, Quantity: 9}},
			orderTotal:  900,
			want:        100, // one free unit, not three
		},
		{
			name:        "percentage off",
			instruction: "10% off",
			items:       []CartItem{{Price: 500, Quantity: 1}},
			orderTotal:  500,
			want:        50,
		},
		{
			name:        "fractional percentage",
			instruction: "Get 12.5% discount on everything!",
			items:       []CartItem{{Price: 400, Quantity: 2}},
			orderTotal:  800,
			want:        100,
		},
		{
			name:        "rupee amount off",
			instruction: "₹75 off",
			items:       []CartItem{{Price: 25, Quantity: 2}},
			orderTotal:  50,
			want:        50, // clamped to order total
		},
		{
			name:        "amount off without currency symbol",
			instruction: "Flat 200 off on your order",
			items:       []CartItem{{Price: 500, Quantity: 2}},
			orderTotal:  1000,
			want:        200,
		},
		{
			name:        "percentage matched before plain amount",
			instruction: "20% off",
			items:       []CartItem{{Price: 100, Quantity: 1}},
			orderTotal:  100,
			want:        20, // not ₹20 off
		},
		{
			name:        "unmatched instruction yields zero",
			instruction: "free gift with every purchase",
			items:       []CartItem{{Price: 100, Quantity: 1}},
			orderTotal:  100,
			want:        0,
		},
		{
			name:        "empty cart yields zero even for matching instruction",
			instruction: "10% off",
			items:       nil,
			orderTotal:  500,
			want:        0,
		},
		{
			name:        "case insensitive matching",
			instruction: "BUY 3 GET 2 FREE",
			items:       []CartItem{{Price: 10, Quantity: 5}},
			orderTotal:  50,
			want:        20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInstruction(tt.instruction, tt.items, tt.orderTotal)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInstructionDoesNotMutateCart(t *testing.T) {
	items := []CartItem{
		{Price: 300, Quantity: 1},
		{Price: 50, Quantity: 2},
	}
	ParseInstruction("buy 2 get 1 free", items, 400)
	assert.Equal(t, 300.0, items[0].Price, "sorting must happen on a copy")
	assert.Equal(t, 50.0, items[1].Price)
}
