package core

import "fmt"

// Command identifies an xAPI command in the fixed catalog.
type Command int

// Command constants define every command the client can issue.
const (
	// CmdLogin authenticates the connection and returns a stream session id.
	CmdLogin Command = iota
	// CmdLogout ends the authenticated session.
	CmdLogout
	// CmdGetAllSymbols lists every symbol available to the account.
	CmdGetAllSymbols
	// CmdGetCalendar lists upcoming economic calendar events.
	CmdGetCalendar
	// CmdGetCurrentUserData returns account details.
	CmdGetCurrentUserData
	// CmdGetSymbol returns a single symbol.
	CmdGetSymbol
	// CmdGetTrades lists the account's trades.
	CmdGetTrades
	// CmdGetTradesHistory lists closed trades in a time range.
	CmdGetTradesHistory
	// CmdGetChartLastRequest returns candles from a start time until now.
	CmdGetChartLastRequest
	// CmdGetChartRangeRequest returns candles in a time range or a tick count.
	CmdGetChartRangeRequest
	// CmdTradeTransaction opens, modifies or closes an order.
	CmdTradeTransaction
	// CmdTransactionStatus returns the status of a submitted transaction.
	CmdTransactionStatus
	// CmdGetNews lists news items in a time range.
	CmdGetNews
)

// String returns the wire name of the command.
func (c Command) String() string {
	if c < CmdLogin || c > CmdGetNews {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return [...]string{
		"login",
		"logout",
		"getAllSymbols",
		"getCalendar",
		"getCurrentUserData",
		"getSymbol",
		"getTrades",
		"getTradesHistory",
		"getChartLastRequest",
		"getChartRangeRequest",
		"tradeTransaction",
		"tradeTransactionStatus",
		"getNews",
	}[c]
}

// MarshalJSON implements json.Marshaler for Command.
func (c Command) MarshalJSON() ([]byte, error) {
	if c < CmdLogin || c > CmdGetNews {
		return nil, fmt.Errorf("unknown command %d", int(c))
	}
	return []byte(`"` + c.String() + `"`), nil
}
