package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_String(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"login", CmdLogin, "login"},
		{"logout", CmdLogout, "logout"},
		{"get_all_symbols", CmdGetAllSymbols, "getAllSymbols"},
		{"get_calendar", CmdGetCalendar, "getCalendar"},
		{"get_current_user_data", CmdGetCurrentUserData, "getCurrentUserData"},
		{"get_symbol", CmdGetSymbol, "getSymbol"},
		{"get_trades", CmdGetTrades, "getTrades"},
		{"get_trades_history", CmdGetTradesHistory, "getTradesHistory"},
		{"get_chart_last_request", CmdGetChartLastRequest, "getChartLastRequest"},
		{"get_chart_range_request", CmdGetChartRangeRequest, "getChartRangeRequest"},
		{"trade_transaction", CmdTradeTransaction, "tradeTransaction"},
		{"transaction_status", CmdTransactionStatus, "tradeTransactionStatus"},
		{"get_news", CmdGetNews, "getNews"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestCommand_MarshalJSON(t *testing.T) {
	data, err := CmdGetSymbol.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"getSymbol"`, string(data))

	_, err = Command(99).MarshalJSON()
	assert.Error(t, err)
}
