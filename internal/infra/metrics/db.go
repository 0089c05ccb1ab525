package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshot is one reading of the Postgres connection pool.
type PoolSnapshot struct {
	Open          int32
	Idle          int32
	Acquired      int32
	Max           int32
	EmptyAcquires int64 // acquires that had to wait for a free connection
}

// poolSource is read on every scrape; nil until TrackPool is called.
var poolSource atomic.Pointer[func() PoolSnapshot]

func init() {
	register(
		poolGauge("db_pool_open_connections", "Connections currently open.", func(s PoolSnapshot) float64 { return float64(s.Open) }),
		poolGauge("db_pool_idle_connections", "Open connections waiting for work.", func(s PoolSnapshot) float64 { return float64(s.Idle) }),
		poolGauge("db_pool_acquired_connections", "Connections checked out by queries.", func(s PoolSnapshot) float64 { return float64(s.Acquired) }),
		poolGauge("db_pool_max_connections", "Configured pool size.", func(s PoolSnapshot) float64 { return float64(s.Max) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "db_pool_empty_acquires_total",
			Help: "Acquires that found no idle connection.",
		}, func() float64 { return readPool(func(s PoolSnapshot) float64 { return float64(s.EmptyAcquires) }) }),
	)
}

// TrackPool makes the pool collectors report read() at scrape time.
func TrackPool(read func() PoolSnapshot) {
	poolSource.Store(&read)
}

func poolGauge(name, help string, field func(PoolSnapshot) float64) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 { return readPool(field) })
}

func readPool(field func(PoolSnapshot) float64) float64 {
	read := poolSource.Load()
	if read == nil {
		return 0
	}
	return field((*read)())
}
