package core

// LoginRequest carries the account credentials for the login command.
type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
	// AppName is an optional client identifier reported to the server.
	AppName string `json:"appName,omitempty"`
}

// NewLoginRequest builds a login request from configured credentials.
func NewLoginRequest(creds *Credentials) LoginRequest {
	return LoginRequest{
		UserID:   creds.UserID,
		Password: creds.Password,
		AppName:  creds.AppName,
	}
}

type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

type TradesRequest struct {
	// OpenedOnly limits the result to open positions.
	OpenedOnly bool `json:"openedOnly"`
}

// TradesHistoryRequest selects closed trades in [Start, End].
// An absent End means "until now".
type TradesHistoryRequest struct {
	Start Millis `json:"start"`
	End   Millis `json:"end,omitzero"`
}

// NewsRequest selects news items in [Start, End].
type NewsRequest struct {
	Start Millis `json:"start"`
	End   Millis `json:"end,omitzero"`
}

// ChartLastInfo selects candles from Start until now.
type ChartLastInfo struct {
	Period Period `json:"period"`
	Start  Millis `json:"start"`
	Symbol string `json:"symbol"`
}

// ChartRangeInfo selects candles in [Start, End].
// When Ticks is non-zero the server ignores End and returns |Ticks| candles
// after (positive) or before (negative) Start.
type ChartRangeInfo struct {
	Period Period `json:"period"`
	Start  Millis `json:"start"`
	End    Millis `json:"end,omitzero"`
	Symbol string `json:"symbol"`
	Ticks  int    `json:"ticks,omitempty"`
}

// ChartRequest nests chart selection parameters under "info".
type ChartRequest[T ChartLastInfo | ChartRangeInfo] struct {
	Info T `json:"info"`
}

// TransactionRequest nests a transaction under "tradeTransInfo".
type TransactionRequest struct {
	TradeTransInfo Transaction `json:"tradeTransInfo"`
}

type TransactionStatusRequest struct {
	Order int64 `json:"order"`
}
