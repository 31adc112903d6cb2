// Command xtbctl runs single xAPI commands against an XTB account and prints the result as JSON.
//
// Usage:
//
//	xtbctl [-config file] [-user id] [-mode demo|real] <command> [flags]
//
// The password is read from XTB_PASSWORD unless the config file provides one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"xtb/internal/store"
	"xtb/pkg/aggregate"
	"xtb/pkg/core"
	"xtb/pkg/ordermanager"
	"xtb/pkg/session"
)

const usage = `commands:
  login                         print the stream session id
  symbols                       list all symbols
  symbol <name>                 show one symbol
  calendar                      list calendar events
  user                          show current user data
  trades [-open]                list trades
  history -from T [-to T]       list closed trades
  chart -symbol S [flags]       fetch candles (-period, -from, -to, -ticks, -resample, -stats, -db)
  trade -symbol S [flags]       submit a transaction
  status <order>                show transaction status
  news -from T [-to T]          list news
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("xtbctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: xtbctl [flags] <command> [command flags]")
		fs.PrintDefaults()
		fmt.Fprint(stderr, usage)
	}

	var (
		configPath string
		userID     string
		modeRaw    string
		logLevel   string
		tag        string
	)
	fs.StringVar(&configPath, "config", "", "yaml config file")
	fs.StringVar(&userID, "user", "", "account id (overrides config)")
	fs.StringVar(&modeRaw, "mode", "", "demo or real (overrides config)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	fs.StringVar(&tag, "tag", "", "correlation tag template")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if modeRaw != "" {
		mode, err := core.ParseConnectionMode(modeRaw)
		if err != nil {
			return err
		}
		config.WithMode(mode)
	}
	if logLevel != "" {
		config.LogLevel = strings.ToLower(logLevel)
	}
	if tag != "" {
		config.WithCustomTag(tag)
	}
	if userID != "" || config.Credentials == nil {
		creds := &core.Credentials{UserID: userID, Password: os.Getenv("XTB_PASSWORD")}
		if config.Credentials != nil {
			creds.AppName = config.Credentials.AppName
			if userID == "" {
				creds.UserID = config.Credentials.UserID
			}
			if creds.Password == "" {
				creds.Password = config.Credentials.Password
			}
		}
		config.WithCredentials(creds)
	}

	logger := newLogger(stderr, config.LogLevel)

	cmd, err := parseCommand(fs.Arg(0), fs.Args()[1:])
	if err != nil {
		return err
	}

	return session.WithSession(ctx, config, func(ctx context.Context, s *session.Session) error {
		result, err := cmd.exec(ctx, s, logger)
		if err != nil {
			return err
		}
		return printJSON(stdout, result)
	}, session.WithLogger(logger))
}

func loadConfig(path string) (*core.Config, error) {
	if path == "" {
		return core.DefaultConfig(), nil
	}
	return core.LoadConfig(path)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type command struct {
	exec func(ctx context.Context, s *session.Session, logger zerolog.Logger) (any, error)
}

func parseCommand(name string, args []string) (*command, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	switch name {
	case "login":
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return map[string]string{"streamSessionId": s.StreamSessionID()}, nil
		}}, nil

	case "symbols":
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.GetAllSymbols(ctx)
		}}, nil

	case "symbol":
		if len(args) != 1 {
			return nil, errors.New("symbol: expected one symbol name")
		}
		symbol := args[0]
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.GetSymbol(ctx, symbol)
		}}, nil

	case "calendar":
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.GetCalendar(ctx)
		}}, nil

	case "user":
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.GetCurrentUserData(ctx)
		}}, nil

	case "trades":
		openedOnly := fs.Bool("open", false, "only open positions")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.GetTrades(ctx, *openedOnly)
		}}, nil

	case "history", "news":
		fromRaw := fs.String("from", "", "start time (YYYY-MM-DD or RFC3339)")
		toRaw := fs.String("to", "", "end time, empty for now")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		from, to, err := parseWindow(*fromRaw, *toRaw)
		if err != nil {
			return nil, err
		}
		if name == "news" {
			return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
				return s.GetNews(ctx, from, to)
			}}, nil
		}
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.GetTradesHistory(ctx, from, to)
		}}, nil

	case "chart":
		return parseChart(fs, args)

	case "trade":
		return parseTrade(fs, args)

	case "status":
		if len(args) != 1 {
			return nil, errors.New("status: expected one order number")
		}
		order, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("status: invalid order %q: %w", args[0], err)
		}
		return &command{exec: func(ctx context.Context, s *session.Session, _ zerolog.Logger) (any, error) {
			return s.TransactionStatus(ctx, order)
		}}, nil
	}

	return nil, fmt.Errorf("unknown command %q", name)
}

func parseChart(fs *flag.FlagSet, args []string) (*command, error) {
	symbol := fs.String("symbol", "", "symbol, e.g. EURUSD")
	periodRaw := fs.String("period", "M1", "candle period (M1 M5 M15 M30 H1 H4 D1 W1 MN1)")
	fromRaw := fs.String("from", "", "start time (YYYY-MM-DD or RFC3339)")
	toRaw := fs.String("to", "", "end time; empty uses the last-candles request")
	ticks := fs.Int("ticks", 0, "candle count around -from, negative for before")
	dbPath := fs.String("db", "", "sqlite file to store the candles in")
	resampleRaw := fs.String("resample", "", "merge candles into a coarser period before output")
	stats := fs.Bool("stats", false, "print a summary instead of the candles")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *symbol == "" {
		return nil, errors.New("chart: -symbol is required")
	}
	period, err := core.ParsePeriod(*periodRaw)
	if err != nil {
		return nil, err
	}
	from, to, err := parseWindow(*fromRaw, *toRaw)
	if err != nil {
		return nil, err
	}
	target := period
	if *resampleRaw != "" {
		if target, err = core.ParsePeriod(*resampleRaw); err != nil {
			return nil, err
		}
		if target < period {
			return nil, fmt.Errorf("chart: cannot resample %s into finer %s", period, target)
		}
	}

	return &command{exec: func(ctx context.Context, s *session.Session, logger zerolog.Logger) (any, error) {
		var (
			rates []core.RateInfo
			err   error
		)
		if to.IsZero() && *ticks == 0 {
			rates, err = s.GetChartLastRequest(ctx, core.ChartLastInfo{
				Period: period,
				Start:  core.At(from),
				Symbol: *symbol,
			})
		} else {
			rates, err = s.GetChartRangeRequest(ctx, core.ChartRangeInfo{
				Period: period,
				Start:  core.At(from),
				End:    core.At(to),
				Symbol: *symbol,
				Ticks:  *ticks,
			})
		}
		if err != nil {
			return nil, err
		}
		if target != period {
			if rates, err = aggregate.Resample(rates, target); err != nil {
				return nil, err
			}
		}

		if *dbPath != "" {
			db, err := store.Open(ctx, *dbPath, logger)
			if err != nil {
				return nil, fmt.Errorf("open candle store: %w", err)
			}
			defer db.Close()
			if err := db.SaveCandles(ctx, *symbol, target, rates); err != nil {
				return nil, fmt.Errorf("save candles: %w", err)
			}
			logger.Info().Str("db", *dbPath).Int("count", len(rates)).Msg("candles stored")
		}
		if *stats {
			return aggregate.Summarize(rates)
		}
		return rates, nil
	}}, nil
}

func parseTrade(fs *flag.FlagSet, args []string) (*command, error) {
	symbol := fs.String("symbol", "", "symbol")
	opRaw := fs.String("cmd", "BUY", "operation: BUY SELL BUY_LIMIT SELL_LIMIT BUY_STOP SELL_STOP")
	typeRaw := fs.String("type", "OPEN", "transaction type: OPEN CLOSE MODIFY DELETE")
	volume := fs.Float64("volume", 0, "volume in lots")
	price := fs.Float64("price", 0, "price")
	sl := fs.Float64("sl", 0, "stop loss")
	tp := fs.Float64("tp", 0, "take profit")
	order := fs.Int64("order", 0, "position number when closing or modifying")
	comment := fs.String("comment", "", "custom comment")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *symbol == "" {
		return nil, errors.New("trade: -symbol is required")
	}
	op, err := parseOperation(*opRaw)
	if err != nil {
		return nil, err
	}
	typ, err := parseTradeType(*typeRaw)
	if err != nil {
		return nil, err
	}

	tx := core.Transaction{
		Cmd:           op,
		CustomComment: *comment,
		Order:         *order,
		Price:         *price,
		SL:            *sl,
		Symbol:        *symbol,
		TP:            *tp,
		Type:          typ,
		Volume:        *volume,
	}
	return &command{exec: func(ctx context.Context, s *session.Session, logger zerolog.Logger) (any, error) {
		manager := ordermanager.NewManager(s, ordermanager.ManagerConfig{EnableValidation: true}).WithLogger(logger)
		placed, err := manager.Submit(ctx, tx)
		if err != nil {
			return nil, err
		}
		return manager.Wait(ctx, placed.Order)
	}}, nil
}

func parseOperation(s string) (core.TradeOperation, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for op := core.OpBuy; op <= core.OpSellStop; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown trade operation %q", s)
}

func parseTradeType(s string) (core.TradeType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, t := range []core.TradeType{core.TradeOpen, core.TradeClose, core.TradeModify, core.TradeDelete} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown trade type %q", s)
}

// parseWindow accepts YYYY-MM-DD or RFC3339 in UTC. An empty end stays zero.
func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := parseTime(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
	}
	end, err := parseTime(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
	}
	if !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("-to is before -from")
	}
	return start, end, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
