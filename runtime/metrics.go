package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/wasm-bridge/store"
)

const namespace = "wasm_bridge"

// collector exports value store counters summed over every session the
// runtime has had. Closed sessions are folded into retired so the counters
// stay monotonic.
type collector struct {
	rt *Runtime

	mu      sync.Mutex
	retired store.Stats

	loads *prometheus.CounterVec

	sessions        *prometheus.Desc
	live            *prometheus.Desc
	created         *prometheus.Desc
	copied          *prometheus.Desc
	destroyed       *prometheus.Desc
	invalidReleases *prometheus.Desc
	failures        *prometheus.Desc
}

func newCollector(rt *Runtime) *collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &collector{
		rt: rt,
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_loads_total",
			Help:      "Guest loads by compile cache result.",
		}, []string{"result"}),
		sessions:        desc("sessions", "Open guest instances."),
		live:            desc("handles_live", "Live handles across open instances."),
		created:         desc("handles_created_total", "Handles created."),
		copied:          desc("handles_copied_total", "Handles copied."),
		destroyed:       desc("handles_destroyed_total", "Handles destroyed."),
		invalidReleases: desc("handles_invalid_releases_total", "Destroys of dead or reserved handles."),
		failures:        desc("host_failures_total", "Host calls that returned the failure sentinel."),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	c.loads.Describe(ch)
	ch <- c.sessions
	ch <- c.live
	ch <- c.created
	ch <- c.copied
	ch <- c.destroyed
	ch <- c.invalidReleases
	ch <- c.failures
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.loads.Collect(ch)

	c.mu.Lock()
	total := c.retired
	c.mu.Unlock()

	sessions := c.rt.Sessions()
	var live int
	for _, sess := range sessions {
		st := sess.store.Stats()
		total = addStats(total, st)
		live += st.Live
	}

	ch <- prometheus.MustNewConstMetric(c.sessions, prometheus.GaugeValue, float64(len(sessions)))
	ch <- prometheus.MustNewConstMetric(c.live, prometheus.GaugeValue, float64(live))
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(total.Created))
	ch <- prometheus.MustNewConstMetric(c.copied, prometheus.CounterValue, float64(total.Copied))
	ch <- prometheus.MustNewConstMetric(c.destroyed, prometheus.CounterValue, float64(total.Destroyed))
	ch <- prometheus.MustNewConstMetric(c.invalidReleases, prometheus.CounterValue, float64(total.InvalidReleases))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(total.Failures))
}

func (c *collector) load(result string) {
	if c == nil {
		return
	}
	c.loads.WithLabelValues(result).Inc()
}

func (c *collector) retire(st store.Stats) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retired = addStats(c.retired, st)
	c.mu.Unlock()
}

func addStats(a, b store.Stats) store.Stats {
	return store.Stats{
		Created:         a.Created + b.Created,
		Copied:          a.Copied + b.Copied,
		Moved:           a.Moved + b.Moved,
		Destroyed:       a.Destroyed + b.Destroyed,
		InvalidReleases: a.InvalidReleases + b.InvalidReleases,
		Failures:        a.Failures + b.Failures,
	}
}
