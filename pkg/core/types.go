package core

import (
	"bytes"
	"fmt"
	"strconv"
)

func decodeEnum(data []byte, name string, valid func(int) bool) (int, error) {
	v, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %s: %w", name, data, err)
	}
	if !valid(v) {
		return 0, fmt.Errorf("unknown %s %d", name, v)
	}
	return v, nil
}

// Period is a chart candle interval in minutes.
type Period int

// Period constants define the candle intervals accepted by chart commands.
const (
	PeriodM1  Period = 1
	PeriodM5  Period = 5
	PeriodM15 Period = 15
	PeriodM30 Period = 30
	PeriodH1  Period = 60
	PeriodH4  Period = 240
	PeriodD1  Period = 1440
	PeriodW1  Period = 10080
	// PeriodMN1 is 30 days.
	PeriodMN1 Period = 43200
)

var periodNames = map[Period]string{
	PeriodM1:  "M1",
	PeriodM5:  "M5",
	PeriodM15: "M15",
	PeriodM30: "M30",
	PeriodH1:  "H1",
	PeriodH4:  "H4",
	PeriodD1:  "D1",
	PeriodW1:  "W1",
	PeriodMN1: "MN1",
}

// String returns the conventional period name ("M1", "H4", ...).
func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// ParsePeriod parses a period name such as "M15" or "D1".
func ParsePeriod(s string) (Period, error) {
	for p, name := range periodNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

// UnmarshalJSON implements json.Unmarshaler for Period.
func (p *Period) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "period", func(v int) bool {
		_, ok := periodNames[Period(v)]
		return ok
	})
	if err != nil {
		return err
	}
	*p = Period(v)
	return nil
}

// TradeOperation is the operation code of a trade or transaction.
type TradeOperation int

// Trade operation constants.
const (
	OpBuy TradeOperation = iota
	OpSell
	OpBuyLimit
	OpSellLimit
	OpBuyStop
	OpSellStop
	// OpBalance is a balance operation, read-only.
	OpBalance
	// OpCredit is a credit operation, read-only.
	OpCredit
)

// String returns the string representation of the trade operation.
func (o TradeOperation) String() string {
	if o < OpBuy || o > OpCredit {
		return fmt.Sprintf("TradeOperation(%d)", int(o))
	}
	return [...]string{"BUY", "SELL", "BUY_LIMIT", "SELL_LIMIT", "BUY_STOP", "SELL_STOP", "BALANCE", "CREDIT"}[o]
}

// UnmarshalJSON implements json.Unmarshaler for TradeOperation.
func (o *TradeOperation) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "trade operation", func(v int) bool {
		return v >= int(OpBuy) && v <= int(OpCredit)
	})
	if err != nil {
		return err
	}
	*o = TradeOperation(v)
	return nil
}

// TradeType is the transaction type of a trade transaction.
type TradeType int

// Trade type constants.
const (
	// TradeOpen opens an order.
	TradeOpen TradeType = iota
	// TradePending is only reported by the streaming trades feed.
	TradePending
	// TradeClose closes an order.
	TradeClose
	// TradeModify modifies an order; only used by tradeTransaction.
	TradeModify
	// TradeDelete deletes an order; only used by tradeTransaction.
	TradeDelete
)

// String returns the string representation of the trade type.
func (t TradeType) String() string {
	if t < TradeOpen || t > TradeDelete {
		return fmt.Sprintf("TradeType(%d)", int(t))
	}
	return [...]string{"OPEN", "PENDING", "CLOSE", "MODIFY", "DELETE"}[t]
}

// UnmarshalJSON implements json.Unmarshaler for TradeType.
func (t *TradeType) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "trade type", func(v int) bool {
		return v >= int(TradeOpen) && v <= int(TradeDelete)
	})
	if err != nil {
		return err
	}
	*t = TradeType(v)
	return nil
}

// QuoteID is the source of a symbol's price.
type QuoteID int

// Quote source constants.
const (
	QuoteFixed QuoteID = iota + 1
	QuoteFloat
	QuoteDepth
	QuoteCross
	QuoteUnknown5
	QuoteUnknown6
)

// String returns the string representation of the quote source.
func (q QuoteID) String() string {
	if q < QuoteFixed || q > QuoteUnknown6 {
		return fmt.Sprintf("QuoteID(%d)", int(q))
	}
	return [...]string{"FIXED", "FLOAT", "DEPTH", "CROSS", "UNKNOWN_5", "UNKNOWN_6"}[q-1]
}

// UnmarshalJSON implements json.Unmarshaler for QuoteID.
func (q *QuoteID) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "quote id", func(v int) bool {
		return v >= int(QuoteFixed) && v <= int(QuoteUnknown6)
	})
	if err != nil {
		return err
	}
	*q = QuoteID(v)
	return nil
}

// MarginMode is used for margin calculation.
type MarginMode int

// Margin mode constants.
const (
	MarginForex MarginMode = iota + 101
	MarginCFDLeveraged
	MarginCFD
	MarginUnknown
)

// String returns the string representation of the margin mode.
func (m MarginMode) String() string {
	if m < MarginForex || m > MarginUnknown {
		return fmt.Sprintf("MarginMode(%d)", int(m))
	}
	return [...]string{"FOREX", "CFD_LEVERAGED", "CFD", "UNKNOWN"}[m-MarginForex]
}

// UnmarshalJSON implements json.Unmarshaler for MarginMode.
func (m *MarginMode) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "margin mode", func(v int) bool {
		return v >= int(MarginForex) && v <= int(MarginUnknown)
	})
	if err != nil {
		return err
	}
	*m = MarginMode(v)
	return nil
}

// ProfitMode is used for profit calculation.
type ProfitMode int

// Profit mode constants.
const (
	ProfitForex ProfitMode = 5
	ProfitCFD   ProfitMode = 6
)

// String returns the string representation of the profit mode.
func (p ProfitMode) String() string {
	switch p {
	case ProfitForex:
		return "FOREX"
	case ProfitCFD:
		return "CFD"
	}
	return fmt.Sprintf("ProfitMode(%d)", int(p))
}

// UnmarshalJSON implements json.Unmarshaler for ProfitMode.
func (p *ProfitMode) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "profit mode", func(v int) bool {
		return v == int(ProfitForex) || v == int(ProfitCFD)
	})
	if err != nil {
		return err
	}
	*p = ProfitMode(v)
	return nil
}

// RequestStatus is the processing state of a trade transaction.
type RequestStatus int

// Request status constants. The value 2 is not used by the server.
const (
	RequestError    RequestStatus = 0
	RequestPending  RequestStatus = 1
	RequestAccepted RequestStatus = 3
	RequestRejected RequestStatus = 4
)

// String returns the string representation of the request status.
func (s RequestStatus) String() string {
	switch s {
	case RequestError:
		return "ERROR"
	case RequestPending:
		return "PENDING"
	case RequestAccepted:
		return "ACCEPTED"
	case RequestRejected:
		return "REJECTED"
	}
	return fmt.Sprintf("RequestStatus(%d)", int(s))
}

// IsTerminal returns true if the transaction will not change state any more.
func (s RequestStatus) IsTerminal() bool {
	return s != RequestPending
}

// UnmarshalJSON implements json.Unmarshaler for RequestStatus.
func (s *RequestStatus) UnmarshalJSON(data []byte) error {
	v, err := decodeEnum(data, "request status", func(v int) bool {
		switch RequestStatus(v) {
		case RequestError, RequestPending, RequestAccepted, RequestRejected:
			return true
		}
		return false
	})
	if err != nil {
		return err
	}
	*s = RequestStatus(v)
	return nil
}

// Symbol describes a tradable instrument.
// Wire keys follow lower camel case except `swap_rollover3days`.
type Symbol struct {
	// Ask is the ask price in base currency.
	Ask float64 `json:"ask"`
	// Bid is the bid price in base currency.
	Bid          float64 `json:"bid"`
	CategoryName string  `json:"categoryName"`
	// ContractSize is the size of one lot.
	ContractSize   int64  `json:"contractSize"`
	Currency       string `json:"currency"`
	CurrencyPair   bool   `json:"currencyPair"`
	CurrencyProfit string `json:"currencyProfit"`
	Description    string `json:"description"`
	// Expiration is absent if not applicable.
	Expiration Millis  `json:"expiration,omitzero"`
	GroupName  string  `json:"groupName"`
	High       float64 `json:"high"`
	// InitialMargin is the initial margin for a one lot order.
	InitialMargin int64 `json:"initialMargin"`
	// InstantMaxVolume is the maximum instant volume multiplied by 100 (in lots).
	InstantMaxVolume   int64      `json:"instantMaxVolume"`
	Leverage           float64    `json:"leverage"`
	LongOnly           bool       `json:"longOnly"`
	LotMax             float64    `json:"lotMax"`
	LotMin             float64    `json:"lotMin"`
	LotStep            float64    `json:"lotStep"`
	Low                float64    `json:"low"`
	MarginHedged       int64      `json:"marginHedged"`
	MarginHedgedStrong bool       `json:"marginHedgedStrong"`
	MarginMaintenance  int64      `json:"marginMaintenance"`
	MarginMode         MarginMode `json:"marginMode"`
	Percentage         float64    `json:"percentage"`
	// PipsPrecision is the number of the symbol's pip decimal places.
	PipsPrecision int `json:"pipsPrecision"`
	// Precision is the number of the symbol's price decimal places.
	Precision    int        `json:"precision"`
	ProfitMode   ProfitMode `json:"profitMode"`
	QuoteID      QuoteID    `json:"quoteId"`
	ShortSelling bool       `json:"shortSelling"`
	SpreadRaw    float64    `json:"spreadRaw"`
	SpreadTable  float64    `json:"spreadTable"`
	// Starting is absent if not applicable.
	Starting   Millis `json:"starting,omitzero"`
	StepRuleID int64  `json:"stepRuleId"`
	// StopsLevel is the minimal distance in pips from the current price for stop loss and take profit.
	StopsLevel        int64   `json:"stopsLevel"`
	SwapRollover3Days int64   `json:"swap_rollover3days"`
	SwapEnable        bool    `json:"swapEnable"`
	SwapLong          float64 `json:"swapLong"`
	SwapShort         float64 `json:"swapShort"`
	SwapType          int     `json:"swapType"`
	Symbol            string  `json:"symbol"`
	// TickSize is nil if not applicable.
	TickSize *float64 `json:"tickSize,omitempty"`
	// TickValue is nil if not applicable.
	TickValue       *float64 `json:"tickValue,omitempty"`
	Time            Millis   `json:"time,omitzero"`
	TimeString      string   `json:"timeString"`
	TrailingEnabled bool     `json:"trailingEnabled"`
	Type            int      `json:"type"`
}

// Calendar is an economic calendar event.
type Calendar struct {
	// Country is a two letter country code.
	Country string `json:"country"`
	// Current is empty until the value is released at Time.
	Current  string `json:"current"`
	Forecast string `json:"forecast"`
	Impact   string `json:"impact"`
	Period   string `json:"period"`
	Previous string `json:"previous"`
	Time     Millis `json:"time,omitzero"`
	Title    string `json:"title"`
}

// CurrentUserData describes the logged-in account.
type CurrentUserData struct {
	CompanyUnit int64  `json:"companyUnit"`
	Currency    string `json:"currency"`
	Group       string `json:"group"`
	IBAccount   bool   `json:"ibAccount"`
	// LeverageMultiplier divided by 100 is the account leverage.
	LeverageMultiplier float64 `json:"leverageMultiplier"`
	SpreadType         *string `json:"spreadType,omitempty"`
	TrailingStop       bool    `json:"trailingStop"`
}

// Trade is an open or closed position.
// The price and time fields keep the server's snake case keys.
type Trade struct {
	ClosePrice float64 `json:"close_price"`
	// CloseTime is absent while the order is open.
	CloseTime       Millis         `json:"close_time,omitzero"`
	CloseTimeString string         `json:"close_timeString,omitempty"`
	Closed          bool           `json:"closed"`
	Cmd             TradeOperation `json:"cmd"`
	Comment         string         `json:"comment"`
	Commission      float64        `json:"commission"`
	// CustomComment is the value supplied with the transaction, if any.
	CustomComment    string  `json:"customComment,omitempty"`
	Digits           int     `json:"digits"`
	Expiration       Millis  `json:"expiration,omitzero"`
	ExpirationString string  `json:"expirationString,omitempty"`
	MarginRate       float64 `json:"margin_rate"`
	Offset           int     `json:"offset"`
	OpenPrice        float64 `json:"open_price"`
	OpenTime         Millis  `json:"open_time"`
	OpenTimeString   string  `json:"open_timeString"`
	// Order is the order number of the opened transaction.
	Order int64 `json:"order"`
	// Order2 is the order number of the closed transaction.
	Order2 int64 `json:"order2"`
	// Position is the order number shared by the opened and closed transaction.
	Position int64   `json:"position"`
	Profit   float64 `json:"profit"`
	// SL is zero if stop loss is not set.
	SL      float64 `json:"sl"`
	Storage float64 `json:"storage"`
	// Symbol is empty for deposit and withdrawal operations.
	Symbol    string `json:"symbol,omitempty"`
	Timestamp Millis `json:"timestamp"`
	// TP is zero if take profit is not set.
	TP     float64 `json:"tp"`
	Volume float64 `json:"volume"`
}

// RateInfo is one chart candle.
//
// On the wire Open is the price times 10^digits and Close, High and Low are
// deltas from Open on the same scale. Candles returned by the session are
// already normalized to absolute prices.
type RateInfo struct {
	Close Decimal `json:"close"`
	// Ctm is the candle start time.
	Ctm       Millis  `json:"ctm"`
	CtmString string  `json:"ctmString"`
	High      Decimal `json:"high"`
	Low       Decimal `json:"low"`
	Open      Decimal `json:"open"`
	// Vol is the volume in lots.
	Vol Decimal `json:"vol"`
}

// RateHistory is the raw chart payload.
type RateHistory struct {
	Digits    int        `json:"digits"`
	RateInfos []RateInfo `json:"rateInfos"`
}

// News is a news item.
type News struct {
	Body       string `json:"body"`
	BodyLen    int    `json:"bodylen"`
	Key        string `json:"key"`
	Time       Millis `json:"time"`
	TimeString string `json:"timeString"`
	Title      string `json:"title"`
}

// Transaction describes an order to open, modify, close or delete.
type Transaction struct {
	Cmd           TradeOperation `json:"cmd"`
	CustomComment string         `json:"customComment,omitempty"`
	// Expiration applies to pending orders and is sent as 0 when absent.
	Expiration Millis `json:"expiration"`
	// Offset is the trailing offset.
	Offset int `json:"offset"`
	// Order is 0 when opening, or the position number when closing or modifying.
	Order  int64     `json:"order"`
	Price  float64   `json:"price"`
	SL     float64   `json:"sl"`
	Symbol string    `json:"symbol"`
	TP     float64   `json:"tp"`
	Type   TradeType `json:"type"`
	Volume float64   `json:"volume"`
}

// TransactionStatus reports the processing state of a submitted transaction.
type TransactionStatus struct {
	Ask           float64       `json:"ask"`
	Bid           float64       `json:"bid"`
	CustomComment string        `json:"customComment,omitempty"`
	Message       string        `json:"message,omitempty"`
	Order         int64         `json:"order"`
	RequestStatus RequestStatus `json:"requestStatus"`
}
