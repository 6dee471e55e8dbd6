package utils

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config      *Config
	RawDB       *sql.DB
	BunDB       *bun.DB
	MetricChans *MetricChans

	// anything that wants the app to stop sends here, main waits on it
	AppCloseSignalChan chan os.Signal

	gracefulShutdownMu    sync.Mutex
	gracefulShutdownChans []*chan struct{}
}

func NewAppState(config *Config) (*AppState, error) {
	as := &AppState{
		Config:             config,
		MetricChans:        NewMetricChans(),
		AppCloseSignalChan: make(chan os.Signal, 1),
	}

	dsn := config.GetDatabasePath() + "?mode=rwc"
	if config.GetDatabasePath() == ":memory:" {
		dsn = ":memory:"
	}

	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("NewAppState: cannot open sqlite database: %w", err)
	}
	// sqlite allows a single writer; one connection also keeps an in-memory
	// database alive for the lifetime of the handle
	as.RawDB.SetMaxOpenConns(1)
	as.RawDB.SetMaxIdleConns(1)

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	// off unless BUNDEBUG asks for it: queries carry session secrets
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.WithVerbose(false),
		bundebug.FromEnv("BUNDEBUG"),
	))

	return as, nil
}

// Returns a channel that is closed when GracefulShutdown runs.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.gracefulShutdownMu.Lock()
	defer as.gracefulShutdownMu.Unlock()
	ch := make(chan struct{})
	as.gracefulShutdownChans = append(as.gracefulShutdownChans, &ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.gracefulShutdownMu.Lock()
	for _, ch := range as.gracefulShutdownChans {
		close(*ch)
	}
	as.gracefulShutdownChans = nil
	as.gracefulShutdownMu.Unlock()

	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}
