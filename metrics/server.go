package metrics

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr is where the metrics server listens when no address is configured.
const DefaultAddr = ":6060"

var (
	// Expvar counters, also exported through the expvar collector.
	EmptyLLMResponseCount = expvar.NewInt("empty_llm_response_count")
	SuccessfulLLMGenCount = expvar.NewInt("successful_llm_gen_count")
	FailedLLMGenCount     = expvar.NewInt("failed_llm_gen_count")
	PostsPublishedCount   = expvar.NewInt("posts_published_count")
	RepliesPublishedCount = expvar.NewInt("replies_published_count")
	AlertsSentCount       = expvar.NewInt("alerts_sent_count")

	GenerationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Tweet generation attempts by outcome (accepted, empty, duplicate, cooldown, llm_error)",
		},
		[]string{"outcome"},
	)

	PublishAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_attempts_total",
			Help: "Publish attempts by result (success, rate_limited, server_error, fatal)",
		},
		[]string{"result"},
	)

	PublishWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "publish_wait_seconds",
			Help:    "Time spent waiting before a publish retry",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600},
		},
	)

	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cycles_total",
			Help: "Main loop cycles by result (success, failure)",
		},
		[]string{"result"},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cycle_duration_seconds",
			Help:    "Duration of one generate and publish cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	MoodTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mood_transitions_total",
			Help: "Personality mood transitions by new mood",
		},
		[]string{"mood"},
	)

	ServiceReachable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_reachable",
			Help: "1 when the last reachability probe of the service succeeded",
		},
		[]string{"service"},
	)
)

type Server struct {
	*http.Server
}

// SetupServer builds the metrics, health and status server. The status board
// may be nil, in which case /status reports an empty snapshot.
func SetupServer(addr string, status *StatusBoard) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewExpvarCollector(
			map[string]*prometheus.Desc{
				"empty_llm_response_count": prometheus.NewDesc("empty_llm_response_count", "number of times the llm responded with an empty string", nil, nil),
				"successful_llm_gen_count": prometheus.NewDesc("successful_llm_gen_count", "number of accepted tweet generations", nil, nil),
				"failed_llm_gen_count":     prometheus.NewDesc("failed_llm_gen_count", "number of times errors occurred in llm generation", nil, nil),
				"posts_published_count":    prometheus.NewDesc("posts_published_count", "number of posts published", nil, nil),
				"replies_published_count":  prometheus.NewDesc("replies_published_count", "number of replies published", nil, nil),
				"alerts_sent_count":        prometheus.NewDesc("alerts_sent_count", "number of operator alerts sent", nil, nil),
			},
		),
		GenerationAttempts,
		PublishAttempts,
		PublishWaitSeconds,
		CyclesTotal,
		CycleDuration,
		MoodTransitions,
		ServiceReachable,
	)

	return &Server{&http.Server{
		Addr:         addr,
		Handler:      NewRouter(reg, status),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}}
}

// NewRouter exposes /metrics, /healthz, /status and the profiler under /debug.
func NewRouter(gatherer prometheus.Gatherer, status *StatusBoard) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthzHandler)
	r.Get("/status", statusHandler(status))
	r.Mount("/debug", middleware.Profiler())
	return r
}

// healthzHandler returns a simple health check response
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func statusHandler(status *StatusBoard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var snap Status
		if status != nil {
			snap = status.Get()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func (s *Server) Run() {
	_ = s.ListenAndServe()
}
