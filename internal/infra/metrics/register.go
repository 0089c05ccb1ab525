package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// declared collects what the init funcs of this package define.
var declared []prometheus.Collector

var defaultOnce sync.Once

func register(cs ...prometheus.Collector) {
	declared = append(declared, cs...)
}

// MustRegister adds the service collectors to the default registry served on /metrics.
// Later calls are no-ops.
func MustRegister() {
	defaultOnce.Do(func() { MustRegisterWith(prometheus.DefaultRegisterer) })
}

// MustRegisterWith adds the service collectors to reg and panics on a name clash.
func MustRegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(declared...)
}
