package metric

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"checkin/src-server/model"
	"checkin/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// Registers c, reusing the already registered collector on a second call.
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		slog.Error("can't register metric", "error", err)
	}
	return c
}

func databaseEmptyRead(as *utils.AppState, tickerInterval time.Duration) {
	databaseEmptyRead := register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkin_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	}))
	databaseEmptyRead.Set(0)
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				return
			case <-ticker.C:
				latency, err := database(context.Background(), as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

// Keeps the last value received on ch, reset to 0 when nothing arrives
// within clearTickerInterval.
func latencyGauge(as *utils.AppState, name, help string, ch <-chan float64, clearTickerInterval time.Duration) {
	gauge := register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}))
	gauge.Set(0)
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				return
			case latency := <-ch:
				gauge.Set(latency)
				clearTicker.Reset(clearTickerInterval)
			case <-clearTicker.C:
				gauge.Set(0)
			}
		}
	}()
}

func newCheckinTotal() *prometheus.CounterVec {
	return register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkin_total",
		Help: "Successful check-ins by method",
	}, []string{"method"}))
}

func checkinTotal(as *utils.AppState) {
	checkinTotal := newCheckinTotal()
	for _, method := range []model.CheckinMethod{
		model.CHECKIN_METHOD_MANUAL,
		model.CHECKIN_METHOD_MOBILE,
		model.CHECKIN_METHOD_QR,
	} {
		checkinTotal.WithLabelValues(string(method))
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				return
			case method := <-as.MetricChans.Checkin:
				checkinTotal.WithLabelValues(method).Inc()
			}
		}
	}()
}

func rosterSize(as *utils.AppState, tickerInterval time.Duration) {
	participants := register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkin_roster_participants",
		Help: "Number of participants in the roster",
	}))
	checkedIn := register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "checkin_roster_checked_in",
		Help: "Number of participants already checked in",
	}))
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				return
			case <-ticker.C:
				ctx := context.Background()
				total, err := model.CountParticipants(ctx, as.BunDB)
				if err != nil {
					slog.Error("can't count participants", "error", err)
					continue
				}
				count, err := model.CountCheckedIn(ctx, as.BunDB)
				if err != nil {
					slog.Error("can't count checked in participants", "error", err)
					continue
				}
				participants.Set(float64(total))
				checkedIn.Set(float64(count))
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, tickerInterval)
	latencyGauge(as,
		"checkin_database_read_microsec",
		"The latency of a database read in microseconds",
		as.MetricChans.DatabaseRead, clearTickerInterval)
	latencyGauge(as,
		"checkin_database_write_microsec",
		"The latency of a database write in microseconds",
		as.MetricChans.DatabaseWrite, clearTickerInterval)
	checkinTotal(as)
	rosterSize(as, tickerInterval)
}
