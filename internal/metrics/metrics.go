// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// auth.SessionMetrics、permission.GateMetrics、cache.Observerを満たす。
type Collector struct {
	sessionEvents       *prometheus.CounterVec
	permissionDecisions *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	cacheInvalidations  *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
	httpLatency         prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobprep_session_events_total",
			Help: "セッションイベント（発行・延長・拒否・削除・掃除）の合計数",
		}, []string{"event"}),
		permissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobprep_permission_decisions_total",
			Help: "機能ゲートの判定結果の合計数",
		}, []string{"feature", "reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobprep_cache_lookups_total",
			Help: "タグキャッシュの参照回数（hit/miss）",
		}, []string{"result"}),
		cacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobprep_cache_invalidations_total",
			Help: "リソース種別ごとのキャッシュ無効化回数",
		}, []string{"resource"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobprep_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobprep_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.sessionEvents,
		c.permissionDecisions,
		c.cacheLookups,
		c.cacheInvalidations,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// IncSessionEvent はセッションイベントをn件記録する。
func (c *Collector) IncSessionEvent(event string, n int) {
	if n <= 0 {
		return
	}
	c.sessionEvents.WithLabelValues(event).Add(float64(n))
}

// IncPermissionDecision は機能ゲートの判定を記録する。
func (c *Collector) IncPermissionDecision(feature, reason string) {
	c.permissionDecisions.WithLabelValues(feature, reason).Inc()
}

// CacheLookup はキャッシュ参照の結果を記録する。
func (c *Collector) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// CacheInvalidated はリソースの無効化を記録する。
func (c *Collector) CacheInvalidated(resource string) {
	c.cacheInvalidations.WithLabelValues(resource).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordHTTPLatency(d time.Duration) {
	c.httpLatency.Observe(d.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Middleware はステータスコードと処理時間を記録するミドルウェアを返す。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			c.RecordHTTPStatus(sw.status)
			c.RecordHTTPLatency(time.Since(start))
		})
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
