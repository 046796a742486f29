package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geonames_import_rows_total",
		Help: "Imported rows by source kind and outcome",
	}, []string{"kind", "outcome"})
	SourceDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geonames_import_source_duration_ms",
		Help:    "Source import duration in milliseconds",
		Buckets: []float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000, 900000},
	}, []string{"kind"})
	SourcesFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geonames_import_sources_failed_total",
		Help: "Sources aborted by a source-level error",
	}, []string{"kind"})
	IdentityLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geonames_identity_lookups_total",
		Help: "Identity cache lookups by kind and result (hit/miss/unknown)",
	}, []string{"kind", "result"})
	AltNamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geonames_altnames_rows_total",
		Help: "Alternate-name rows by result (used/ignored)",
	}, []string{"result"})
	PreferredNamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geonames_preferred_names_total",
		Help: "Preferred names committed by kind",
	}, []string{"kind"})
	SlowQueriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geonames_sql_slow_queries_total",
		Help: "SQL statements slower than the configured threshold",
	})
)

func init() {
	prometheus.MustRegister(RowsTotal)
	prometheus.MustRegister(SourceDurationMs)
	prometheus.MustRegister(SourcesFailedTotal)
	prometheus.MustRegister(IdentityLookupsTotal)
	prometheus.MustRegister(AltNamesTotal)
	prometheus.MustRegister(PreferredNamesTotal)
	prometheus.MustRegister(SlowQueriesTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：导入为离线批处理，仅在设置 METRICS_ADDR 时由主入口挂载到 /metrics，供运行期间抓取。
func Handler() http.Handler { return promhttp.Handler() }
