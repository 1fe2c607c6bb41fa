// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordEventCreated()
	RecordEventDeleted()
	RecordFavoriteAdded()
	RecordFavoriteRemoved()
	RecordHTTPStatus(statusCode int)
	RecordStoreLatency(duration time.Duration)
	RecordSessionsCleaned(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	eventsCreated   prometheus.Counter
	eventsDeleted   prometheus.Counter
	favoritesAdded  prometheus.Counter
	favoritesRemove prometheus.Counter
	httpStatus      *prometheus.CounterVec
	storeLatency    prometheus.Histogram
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_events_created_total",
			Help: "作成されたイベントの合計数",
		}),
		eventsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_events_deleted_total",
			Help: "削除されたイベントの合計数",
		}),
		favoritesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_favorites_added_total",
			Help: "追加されたお気に入りの合計数",
		}),
		favoritesRemove: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_favorites_removed_total",
			Help: "解除されたお気に入りの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		storeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventman_store_latency_seconds",
			Help:    "ストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventman_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.eventsCreated,
		c.eventsDeleted,
		c.favoritesAdded,
		c.favoritesRemove,
		c.httpStatus,
		c.storeLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordEventCreated はイベント作成を記録する。
func (c *Collector) RecordEventCreated() {
	c.eventsCreated.Inc()
}

// RecordEventDeleted はイベント削除を記録する。
func (c *Collector) RecordEventDeleted() {
	c.eventsDeleted.Inc()
}

// RecordFavoriteAdded はお気に入り追加を記録する。
func (c *Collector) RecordFavoriteAdded() {
	c.favoritesAdded.Inc()
}

// RecordFavoriteRemoved はお気に入り解除を記録する。
func (c *Collector) RecordFavoriteRemoved() {
	c.favoritesRemove.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStoreLatency はストア操作のレイテンシを記録する。
func (c *Collector) RecordStoreLatency(duration time.Duration) {
	c.storeLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// /metricsエンドポイントとしてルーターに登録して使う。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
