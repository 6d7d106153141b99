package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TenantResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolutions_total",
			Help: "Tenant resolution attempts by outcome (bound, miss, inactive, error)",
		},
		[]string{"result"},
	)

	ResolverCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolver_cache_hits_total",
			Help: "Tenant lookups served from the resolver cache",
		},
	)

	ScopedReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_reads_total",
			Help: "Collection reads by scope (tenant, unbound, global)",
		},
		[]string{"collection", "scope"},
	)

	CrossTenantRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_cross_tenant_rejections_total",
			Help: "Writes rejected because the entity belongs to another tenant",
		},
		[]string{"collection"},
	)

	StoreCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_commits_total",
			Help: "SaveChanges calls by result",
		},
		[]string{"result"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-tenant rate limiter",
		},
	)

	WorkerProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_processed_total",
			Help: "Total number of jobs processed by workers",
		},
		[]string{"tenant", "result"},
	)

	WorkerActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_active_goroutines",
			Help: "Number of active worker goroutines per tenant",
		},
		[]string{"tenant"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current RabbitMQ job queue depth per tenant",
		},
		[]string{"tenant"},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(TenantResolutions)
	prometheus.MustRegister(ResolverCacheHits)
	prometheus.MustRegister(ScopedReads)
	prometheus.MustRegister(CrossTenantRejections)
	prometheus.MustRegister(StoreCommits)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(WorkerProcessed)
	prometheus.MustRegister(WorkerActive)
	prometheus.MustRegister(QueueDepth)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
