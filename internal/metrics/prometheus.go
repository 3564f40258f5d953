package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecommendationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_request_duration_seconds",
			Help:    "Recommendation request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"ai_used"},
	)

	RecommendationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_requests_total",
			Help: "Total number of recommendation requests served",
		},
		[]string{"status"},
	)

	AIRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_ai_requests_total",
			Help: "Total AI provider calls by pipeline operation",
		},
		[]string{"operation", "status"},
	)

	AITokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_ai_tokens_used_total",
			Help: "Total provider-reported AI tokens consumed",
		},
		[]string{"operation"},
	)

	AICacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_ai_cache_hits_total",
			Help: "AI analysis cache hits",
		},
		[]string{"operation"},
	)

	AICacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_ai_cache_misses_total",
			Help: "AI analysis cache misses",
		},
		[]string{"operation"},
	)

	CombinedScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_combined_score",
			Help:    "Combined scores of returned recommendations",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	ProductsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_products_loaded",
			Help: "Number of products in the content model",
		},
	)
)

func Init() {
	prometheus.MustRegister(RecommendationDuration)
	prometheus.MustRegister(RecommendationTotal)
	prometheus.MustRegister(AIRequestTotal)
	prometheus.MustRegister(AITokensUsed)
	prometheus.MustRegister(AICacheHits)
	prometheus.MustRegister(AICacheMisses)
	prometheus.MustRegister(CombinedScore)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(ProductsLoaded)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
