package session

import (
	"context"
	"time"

	"xtb/pkg/core"
	"xtb/pkg/xapi"
)

type command struct {
	shape         xapi.Shape
	key           string
	requiresLogin bool
}

var catalog = map[core.Command]command{
	core.CmdLogin:                {xapi.ShapeScalar, xapi.KeyStreamSessionID, false},
	core.CmdLogout:               {xapi.ShapeNone, xapi.KeyReturnData, true},
	core.CmdGetAllSymbols:        {xapi.ShapeList, xapi.KeyReturnData, true},
	core.CmdGetCalendar:          {xapi.ShapeList, xapi.KeyReturnData, true},
	core.CmdGetCurrentUserData:   {xapi.ShapeRecord, xapi.KeyReturnData, true},
	core.CmdGetSymbol:            {xapi.ShapeRecord, xapi.KeyReturnData, true},
	core.CmdGetTrades:            {xapi.ShapeList, xapi.KeyReturnData, true},
	core.CmdGetTradesHistory:     {xapi.ShapeList, xapi.KeyReturnData, true},
	core.CmdGetChartLastRequest:  {xapi.ShapeRecord, xapi.KeyReturnData, true},
	core.CmdGetChartRangeRequest: {xapi.ShapeRecord, xapi.KeyReturnData, true},
	core.CmdTradeTransaction:     {xapi.ShapeScalar, xapi.KeyReturnData, true},
	core.CmdTransactionStatus:    {xapi.ShapeRecord, xapi.KeyReturnData, true},
	core.CmdGetNews:              {xapi.ShapeList, xapi.KeyReturnData, true},
}

// call runs one catalog command and decodes its result.
func call[T any](ctx context.Context, s *Session, cmd core.Command, args any) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return callLocked[T](ctx, s, cmd, args)
}

func callLocked[T any](ctx context.Context, s *Session, cmd core.Command, args any) (T, error) {
	var zero T
	entry := catalog[cmd]
	if s.broken != nil {
		return zero, s.brokenError(cmd)
	}
	if entry.requiresLogin && s.state != StateLoggedIn {
		return zero, core.NewAPIError(core.ErrorTypeNotAuthenticated, "", core.ErrNotAuthenticated).
			WithCode(core.ErrCodeNotLoggedIn).
			WithCommand(cmd)
	}

	resp, err := s.roundTrip(ctx, cmd, args)
	if err != nil {
		return zero, err
	}
	out, err := xapi.Decode[T](resp, entry.shape, entry.key)
	if err != nil {
		return zero, withCommand(err, cmd)
	}
	return out, nil
}

// GetAllSymbols lists every symbol available to the account.
func (s *Session) GetAllSymbols(ctx context.Context) ([]core.Symbol, error) {
	return call[[]core.Symbol](ctx, s, core.CmdGetAllSymbols, nil)
}

// GetCalendar lists economic calendar events.
func (s *Session) GetCalendar(ctx context.Context) ([]core.Calendar, error) {
	return call[[]core.Calendar](ctx, s, core.CmdGetCalendar, nil)
}

// GetCurrentUserData returns details of the logged-in account.
func (s *Session) GetCurrentUserData(ctx context.Context) (*core.CurrentUserData, error) {
	data, err := call[core.CurrentUserData](ctx, s, core.CmdGetCurrentUserData, nil)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSymbol returns a single symbol.
func (s *Session) GetSymbol(ctx context.Context, symbol string) (*core.Symbol, error) {
	result, err := call[core.Symbol](ctx, s, core.CmdGetSymbol, core.SymbolRequest{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTrades lists the account's trades, or only open positions when openedOnly is set.
func (s *Session) GetTrades(ctx context.Context, openedOnly bool) ([]core.Trade, error) {
	return call[[]core.Trade](ctx, s, core.CmdGetTrades, core.TradesRequest{OpenedOnly: openedOnly})
}

// GetTradesHistory lists trades closed between start and end.
// A zero end means "until now".
func (s *Session) GetTradesHistory(ctx context.Context, start, end time.Time) ([]core.Trade, error) {
	return call[[]core.Trade](ctx, s, core.CmdGetTradesHistory, core.TradesHistoryRequest{
		Start: core.At(start),
		End:   core.At(end),
	})
}

// GetChartLastRequest returns candles from start until now with absolute prices.
func (s *Session) GetChartLastRequest(ctx context.Context, info core.ChartLastInfo) ([]core.RateInfo, error) {
	history, err := call[core.RateHistory](ctx, s, core.CmdGetChartLastRequest, core.ChartRequest[core.ChartLastInfo]{Info: info})
	if err != nil {
		return nil, err
	}
	return normalize(&history, core.CmdGetChartLastRequest)
}

// GetChartRangeRequest returns candles in a time range, or a tick count around
// start, with absolute prices.
func (s *Session) GetChartRangeRequest(ctx context.Context, info core.ChartRangeInfo) ([]core.RateInfo, error) {
	history, err := call[core.RateHistory](ctx, s, core.CmdGetChartRangeRequest, core.ChartRequest[core.ChartRangeInfo]{Info: info})
	if err != nil {
		return nil, err
	}
	return normalize(&history, core.CmdGetChartRangeRequest)
}

func normalize(history *core.RateHistory, cmd core.Command) ([]core.RateInfo, error) {
	rates, err := xapi.NormalizeRates(history)
	if err != nil {
		return nil, core.NewAPIError(core.ErrorTypeDecode, "normalize candles", err).
			WithCode(core.ErrCodeShapeMismatch).
			WithCommand(cmd)
	}
	return rates, nil
}

// TradeTransaction submits an order and returns its order number.
// Acceptance is reported asynchronously; poll TransactionStatus with the returned number.
func (s *Session) TradeTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	return call[int64](ctx, s, core.CmdTradeTransaction, core.TransactionRequest{TradeTransInfo: tx})
}

// TransactionStatus returns the processing state of a submitted order.
func (s *Session) TransactionStatus(ctx context.Context, order int64) (*core.TransactionStatus, error) {
	status, err := call[core.TransactionStatus](ctx, s, core.CmdTransactionStatus, core.TransactionStatusRequest{Order: order})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetNews lists news items published between start and end.
func (s *Session) GetNews(ctx context.Context, start, end time.Time) ([]core.News, error) {
	return call[[]core.News](ctx, s, core.CmdGetNews, core.NewsRequest{
		Start: core.At(start),
		End:   core.At(end),
	})
}
