package observability

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "enricher"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Read API requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Read API request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	PlacesCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "places_calls_total", Help: "Calls to the place-search API by endpoint and HTTP status (0 = transport error)."},
		[]string{"service", "endpoint", "status"},
	)
	PlacesLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "places_call_duration_seconds",
			Help:    "Place-search API call duration seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	RowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rows_total", Help: "Sheet rows by enrichment outcome."},
		[]string{"sheet", "outcome"}, // outcome: enriched|no_match|skipped|failed
	)
	SheetDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "sheet_duration_seconds", Help: "Wall time of the last run per sheet."},
		[]string{"sheet"},
	)
)

var (
	regOnce sync.Once
	reg     *prometheus.Registry
)

// InitRegistry returns the process-wide registry holding the collectors above.
// Both binaries call it, so registration happens once.
func InitRegistry() *prometheus.Registry {
	regOnce.Do(func() {
		reg = prometheus.NewRegistry()
		reg.MustRegister(HTTPRequests, HTTPLatency, PlacesCalls, PlacesLatency, CacheEvents, RowsProcessed, SheetDuration)
	})
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in the background so a batch run can be
// scraped while it works. Empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	PlacesCalls.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	PlacesLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveRow(sheet, outcome string) {
	RowsProcessed.WithLabelValues(sheet, outcome).Inc()
}

func ObserveSheet(sheet string, dur time.Duration) {
	SheetDuration.WithLabelValues(sheet).Set(dur.Seconds())
}
