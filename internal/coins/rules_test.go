package coins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRedemption(t *testing.T) {
	rule := RedemptionRule{Coins: 50, DiscountPercent: 5}

	tests := []struct {
		name          string
		coinsToRedeem int
		balance       int
		subtotal      float64
		rule          RedemptionRule
		wantErr       error
		wantAmount    float64
		wantPercent   float64
		wantRemaining int
	}{
		{
			name:          "two full units",
			coinsToRedeem: 100,
			balance:       120,
			subtotal:      2000,
			rule:          rule,
			wantAmount:    200,
			wantPercent:   10,
			wantRemaining: 0,
		},
		{
			name:          "leftover coins buy no discount",
			coinsToRedeem: 75,
			balance:       100,
			subtotal:      1000,
			rule:          rule,
			wantAmount:    50,
			wantPercent:   5,
			wantRemaining: 25,
		},
		{
			name:          "fewer coins than one unit",
			coinsToRedeem: 30,
			balance:       100,
			subtotal:      1000,
			rule:          rule,
			wantAmount:    0,
			wantPercent:   0,
			wantRemaining: 30,
		},
		{
			name:          "amount rounded to two decimals",
			coinsToRedeem: 50,
			balance:       50,
			subtotal:      333.33,
			rule:          rule,
			wantAmount:    16.67, // 333.33 * 5% = 16.6665
			wantPercent:   5,
			wantRemaining: 0,
		},
		{
			name:          "insufficient balance",
			coinsToRedeem: 100,
			balance:       99,
			subtotal:      1000,
			rule:          rule,
			wantErr:       ErrInsufficientCoins,
		},
		{
			name:          "zero coins is invalid",
			coinsToRedeem: 0,
			balance:       100,
			subtotal:      1000,
			rule:          rule,
			wantErr:       ErrInvalidInput,
		},
		{
			name:          "negative coins is invalid",
			coinsToRedeem: -10,
			balance:       100,
			subtotal:      1000,
			rule:          rule,
			wantErr:       ErrInvalidInput,
		},
		{
			name:          "zero subtotal is invalid",
			coinsToRedeem: 50,
			balance:       100,
			subtotal:      0,
			rule:          rule,
			wantErr:       ErrInvalidInput,
		},
		{
			name:          "misconfigured rule is invalid",
			coinsToRedeem: 50,
			balance:       100,
			subtotal:      1000,
			rule:          RedemptionRule{Coins: 0, DiscountPercent: 5},
			wantErr:       ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateRedemption(tt.coinsToRedeem, tt.balance, tt.subtotal, tt.rule)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, got.DiscountAmount)
			assert.Equal(t, tt.wantPercent, got.DiscountPercent)
			assert.Equal(t, tt.wantRemaining, got.CoinsRemaining)
		})
	}
}

func TestCalculateRedemption_RoundTrip(t *testing.T) {
	rule := DefaultRedemptionRule
	for coinsToRedeem := 1; coinsToRedeem <= 200; coinsToRedeem++ {
		got, err := CalculateRedemption(coinsToRedeem, 200, 1000, rule)
		require.NoError(t, err)

		units := coinsToRedeem / rule.Coins
		assert.Equal(t, coinsToRedeem-units*rule.Coins, got.CoinsRemaining)
		assert.GreaterOrEqual(t, got.CoinsRemaining, 0)
		assert.Less(t, got.CoinsRemaining, rule.Coins)
	}
}

func TestEarnedForOrder(t *testing.T) {
	rule := DefaultEarningRule

	assert.Equal(t, 10, EarnedForOrder(5000, rule), "threshold is inclusive")
	assert.Equal(t, 10, EarnedForOrder(12000, rule))
	assert.Equal(t, 0, EarnedForOrder(4999.99, rule))
	assert.Equal(t, 0, EarnedForOrder(0, rule))
}
