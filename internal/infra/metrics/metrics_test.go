package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	t.Run("should normalize label values", func(t *testing.T) {
		before := testutil.ToFloat64(paymentsTotal.WithLabelValues("confirmed"))
		IncPayment("  Confirmed ")
		after := testutil.ToFloat64(paymentsTotal.WithLabelValues("confirmed"))
		if after-before != 1 {
			t.Errorf("expected the counter to grow by 1, got %v", after-before)
		}
	})

	t.Run("should add grants per duration", func(t *testing.T) {
		before := testutil.ToFloat64(accessGrantsTotal.WithLabelValues("30"))
		AddAccessGrants(30, 3)
		after := testutil.ToFloat64(accessGrantsTotal.WithLabelValues("30"))
		if after-before != 3 {
			t.Errorf("expected 3 more grants, got %v", after-before)
		}
	})

	t.Run("should register once", func(t *testing.T) {
		MustRegister()
		MustRegister()
	})

	t.Run("should expose every declared collector on a fresh registry", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		MustRegisterWith(reg)
		IncPayment("created")
		SetBuildInfo("test", "none")

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather failed: %v", err)
		}
		names := map[string]bool{}
		for _, f := range families {
			names[f.GetName()] = true
		}
		for _, want := range []string{"payments_total", "build_info", "db_pool_open_connections", "db_pool_empty_acquires_total"} {
			if !names[want] {
				t.Errorf("missing %s in %v", want, names)
			}
		}
	})
}

func TestPoolCollectors(t *testing.T) {
	t.Run("should read the tracked pool at scrape time", func(t *testing.T) {
		snap := PoolSnapshot{Open: 5, Idle: 2, Acquired: 3, Max: 10, EmptyAcquires: 7}
		TrackPool(func() PoolSnapshot { return snap })
		t.Cleanup(func() { poolSource.Store(nil) })

		open := poolGauge("test_open", "h", func(s PoolSnapshot) float64 { return float64(s.Open) })
		if got := testutil.ToFloat64(open); got != 5 {
			t.Errorf("expected 5 open connections, got %v", got)
		}
		snap.Open = 6
		if got := testutil.ToFloat64(open); got != 6 {
			t.Errorf("expected a fresh reading of 6, got %v", got)
		}
	})

	t.Run("should report zero before a pool is tracked", func(t *testing.T) {
		poolSource.Store(nil)
		if got := readPool(func(s PoolSnapshot) float64 { return float64(s.Max) }); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})
}
