// Package observability exposes the service's Prometheus metrics.
package observability

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tonflip"

var (
	// Registry holds the service's collectors
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	flipsSettled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "flips_settled_total",
		Help:      "Coin flips settled, by outcome.",
	}, []string{"outcome"})

	flipVolume = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "flip_volume_points_total",
		Help:      "Points wagered across all settled flips.",
	})

	pointsCredited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "points_credited_total",
		Help:      "Points credited outside of flips, by source.",
	}, []string{"source"})

	purchaseVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "purchases",
		Name:      "verifications_total",
		Help:      "Purchase verification attempts, by result.",
	}, []string{"result"})

	purchasesExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "purchases",
		Name:      "expired_total",
		Help:      "Pending purchases expired by the scheduler.",
	})

	feedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "connected_clients",
		Help:      "WebSocket clients subscribed to the live plays feed.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		flipsSettled,
		flipVolume,
		pointsCredited,
		purchaseVerifications,
		purchasesExpired,
		feedClients,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler is mux middleware recording request counts and latency per route template
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordFlip counts a settled flip
func RecordFlip(won bool, amount int64) {
	outcome := "rugged"
	if won {
		outcome = "doubled"
	}
	flipsSettled.WithLabelValues(outcome).Inc()
	flipVolume.Add(float64(amount))
}

// RecordPointsCredited counts points granted by tasks, purchases or referral claims
func RecordPointsCredited(source string, points int64) {
	if points <= 0 {
		return
	}
	pointsCredited.WithLabelValues(source).Add(float64(points))
}

// RecordPurchaseVerification counts a verification attempt
func RecordPurchaseVerification(result string) {
	purchaseVerifications.WithLabelValues(result).Inc()
}

// RecordPurchasesExpired counts purchases expired in one scheduler run
func RecordPurchasesExpired(count int64) {
	purchasesExpired.Add(float64(count))
}

// SetFeedClients reports the live feed's subscriber count
func SetFeedClients(count int) {
	feedClients.Set(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// routeTemplate keeps path parameters out of the label set
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
