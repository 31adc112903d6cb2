package ordermanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtb/pkg/core"
)

func TestTransactionBuilder_Build(t *testing.T) {
	tests := []struct {
		name       string
		build      func() (core.Transaction, error)
		wantErr    bool
		errContain string
	}{
		{
			name: "market buy",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Buy().Volume("0.1").Build()
			},
		},
		{
			name: "pending sell limit with expiration",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").
					SellLimit().
					Price("1.1050").
					Volume("1").
					StopLoss("1.1100").
					TakeProfit("1.0950").
					Expiration(time.Now().Add(time.Hour)).
					Comment("grid-1").
					Build()
			},
		},
		{
			name: "close position",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Sell().Close(1234).Volume("0.1").Price("1.1").Build()
			},
		},
		{
			name: "delete pending order without volume",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").BuyStop().Delete(99).Build()
			},
		},
		{
			name: "missing symbol",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("").Buy().Volume("0.1").Build()
			},
			wantErr:    true,
			errContain: "symbol is required",
		},
		{
			name: "zero volume",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Buy().Build()
			},
			wantErr:    true,
			errContain: "volume must be positive",
		},
		{
			name: "pending order without price",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").BuyLimit().Volume("0.1").Build()
			},
			wantErr:    true,
			errContain: "price must be positive",
		},
		{
			name: "close without position number",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Close(0).Volume("0.1").Build()
			},
			wantErr:    true,
			errContain: "requires an order number",
		},
		{
			name: "read-only operation",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Operation(core.OpBalance).Volume("1").Build()
			},
			wantErr:    true,
			errContain: "cannot be submitted",
		},
		{
			name: "invalid volume text",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Volume("lots").Build()
			},
			wantErr:    true,
			errContain: "parse volume",
		},
		{
			name: "first error wins",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Price("x").Volume("y").Build()
			},
			wantErr:    true,
			errContain: "parse price",
		},
		{
			name: "negative stop loss",
			build: func() (core.Transaction, error) {
				return NewTransactionBuilder("EURUSD").Volume("1").StopLoss("-1").Build()
			},
			wantErr:    true,
			errContain: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := tt.build()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tx.Symbol)
		})
	}
}

func TestTransactionBuilder_Fields(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tx, err := NewTransactionBuilder("US500").
		BuyStop().
		Price("4500.5").
		Volume("0.2").
		Offset(15).
		Expiration(exp).
		Comment("breakout").
		Build()
	require.NoError(t, err)

	assert.Equal(t, core.OpBuyStop, tx.Cmd)
	assert.Equal(t, core.TradeOpen, tx.Type)
	assert.Equal(t, 4500.5, tx.Price)
	assert.Equal(t, 0.2, tx.Volume)
	assert.Equal(t, 15, tx.Offset)
	assert.Equal(t, exp.UnixMilli(), tx.Expiration.UnixMilli())
	assert.Equal(t, "breakout", tx.CustomComment)
	assert.Zero(t, tx.Order)
}
