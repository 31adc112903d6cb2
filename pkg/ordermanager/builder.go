package ordermanager

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"xtb/pkg/core"
)

// TransactionBuilder provides a fluent interface for constructing trade transactions.
// It keeps the first error and reports it on Build.
//
// Example:
//
//	tx, err := ordermanager.NewTransactionBuilder("EURUSD").
//	    Buy().
//	    Volume("0.1").
//	    StopLoss("1.0800").
//	    Build()
type TransactionBuilder struct {
	tx  core.Transaction
	err error
}

// NewTransactionBuilder starts a market buy that opens a position in symbol.
func NewTransactionBuilder(symbol string) *TransactionBuilder {
	return &TransactionBuilder{
		tx: core.Transaction{
			Symbol: symbol,
			Cmd:    core.OpBuy,
			Type:   core.TradeOpen,
		},
	}
}

// Operation sets the operation code.
func (b *TransactionBuilder) Operation(op core.TradeOperation) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Cmd = op
	return b
}

func (b *TransactionBuilder) Buy() *TransactionBuilder       { return b.Operation(core.OpBuy) }
func (b *TransactionBuilder) Sell() *TransactionBuilder      { return b.Operation(core.OpSell) }
func (b *TransactionBuilder) BuyLimit() *TransactionBuilder  { return b.Operation(core.OpBuyLimit) }
func (b *TransactionBuilder) SellLimit() *TransactionBuilder { return b.Operation(core.OpSellLimit) }
func (b *TransactionBuilder) BuyStop() *TransactionBuilder   { return b.Operation(core.OpBuyStop) }
func (b *TransactionBuilder) SellStop() *TransactionBuilder  { return b.Operation(core.OpSellStop) }

// Close closes the open position with the given number.
func (b *TransactionBuilder) Close(position int64) *TransactionBuilder {
	return b.target(core.TradeClose, position)
}

// Modify changes the order or position with the given number.
func (b *TransactionBuilder) Modify(order int64) *TransactionBuilder {
	return b.target(core.TradeModify, order)
}

// Delete removes the pending order with the given number.
func (b *TransactionBuilder) Delete(order int64) *TransactionBuilder {
	return b.target(core.TradeDelete, order)
}

func (b *TransactionBuilder) target(t core.TradeType, order int64) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Type = t
	b.tx.Order = order
	return b
}

// Volume sets the volume in lots from a string representation.
func (b *TransactionBuilder) Volume(lots string) *TransactionBuilder {
	return b.setFloat(&b.tx.Volume, "volume", lots)
}

// Price sets the order price from a string representation.
func (b *TransactionBuilder) Price(price string) *TransactionBuilder {
	return b.setFloat(&b.tx.Price, "price", price)
}

// StopLoss sets the stop loss price; "0" clears it.
func (b *TransactionBuilder) StopLoss(price string) *TransactionBuilder {
	return b.setFloat(&b.tx.SL, "stop loss", price)
}

// TakeProfit sets the take profit price; "0" clears it.
func (b *TransactionBuilder) TakeProfit(price string) *TransactionBuilder {
	return b.setFloat(&b.tx.TP, "take profit", price)
}

func (b *TransactionBuilder) setFloat(dst *float64, name, raw string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		b.err = fmt.Errorf("parse %s %q: invalid number", name, raw)
		return b
	}
	*dst = v
	return b
}

// Offset sets the trailing offset in points.
func (b *TransactionBuilder) Offset(points int) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Offset = points
	return b
}

// Expiration sets when a pending order expires.
func (b *TransactionBuilder) Expiration(t time.Time) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Expiration = core.At(t)
	return b
}

// Comment sets a free-form comment echoed back in trade records.
func (b *TransactionBuilder) Comment(comment string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.CustomComment = comment
	return b
}

// Build validates and returns the constructed transaction.
func (b *TransactionBuilder) Build() (core.Transaction, error) {
	if b.err != nil {
		return core.Transaction{}, b.err
	}
	if err := validateTransaction(b.tx); err != nil {
		return core.Transaction{}, err
	}
	return b.tx, nil
}

func isPending(op core.TradeOperation) bool {
	return op >= core.OpBuyLimit && op <= core.OpSellStop
}

func validateTransaction(tx core.Transaction) error {
	if tx.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	if tx.Cmd < core.OpBuy || tx.Cmd > core.OpSellStop {
		return fmt.Errorf("operation %s cannot be submitted", tx.Cmd)
	}

	switch tx.Type {
	case core.TradeOpen:
		if tx.Order != 0 {
			return fmt.Errorf("order number must be zero when opening")
		}
	case core.TradeClose, core.TradeModify, core.TradeDelete:
		if tx.Order <= 0 {
			return fmt.Errorf("%s requires an order number", tx.Type)
		}
	default:
		return fmt.Errorf("transaction type %s cannot be submitted", tx.Type)
	}

	if tx.Type != core.TradeDelete && tx.Volume <= 0 {
		return fmt.Errorf("volume must be positive")
	}

	if isPending(tx.Cmd) && tx.Type == core.TradeOpen && tx.Price <= 0 {
		return fmt.Errorf("price must be positive for pending orders")
	}

	if tx.SL < 0 || tx.TP < 0 || tx.Price < 0 {
		return fmt.Errorf("prices must not be negative")
	}

	return nil
}
