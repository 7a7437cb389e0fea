package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	geocodeLookups *prometheus.CounterVec
	resolverCalls  *prometheus.CounterVec
	boardBuild     prometheus.Histogram
	boardOrders    prometheus.Counter
	opDuration     *prometheus.HistogramVec
	httpRequests   *prometheus.HistogramVec
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default returns metrics registered with the default Prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultM = New(prometheus.DefaultRegisterer)
	})
	return defaultM
}

// New creates collectors registered with registerer. Collectors that are
// already registered are reused.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		geocodeLookups: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_board_geocode_lookups_total",
			Help: "Geocode cache lookups by result (hit, store_hit, miss)",
		}, []string{"result"}),
		resolverCalls: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "order_board_geocoder_calls_total",
			Help: "External geocoder calls by outcome (found, not_found, error)",
		}, []string{"outcome"}),
		boardBuild: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "order_board_build_duration_seconds",
			Help:    "Duration of order board assembly",
			Buckets: prometheus.DefBuckets,
		}),
		boardOrders: registerCounter(registerer, prometheus.CounterOpts{
			Name: "order_board_orders_total",
			Help: "Orders processed by the board assembler",
		}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "order_board_op_duration_seconds",
			Help:    "Duration of timed operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op", "outcome"}),
		httpRequests: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "order_board_http_request_duration_seconds",
			Help:    "HTTP request duration by route, method and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
}

func (m *Metrics) GeocodeLookup(result string) {
	if m == nil {
		return
	}
	m.geocodeLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ResolverCall(outcome string) {
	if m == nil {
		return
	}
	m.resolverCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BoardBuilt(orders int, dur time.Duration) {
	if m == nil {
		return
	}
	m.boardOrders.Add(float64(orders))
	m.boardBuild.Observe(dur.Seconds())
}

func (m *Metrics) ObserveOp(op, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.opDuration.WithLabelValues(op, outcome).Observe(dur.Seconds())
}

func (m *Metrics) HTTPRequest(route, method string, code int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Observe(dur.Seconds())
}

func registerCounter(r prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := r.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func registerCounterVec(r prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerHistogram(r prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := r.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		panic(err)
	}
	return h
}

func registerHistogramVec(r prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := r.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		panic(err)
	}
	return h
}
