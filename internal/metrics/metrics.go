// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// サービス層とミドルウェアはこの部分集合インターフェースを介して利用する。
type Collector struct {
	workoutCreated prometheus.Counter
	adviceLatency  prometheus.Histogram
	adviceFail     prometheus.Counter
	activeWatches  prometheus.Gauge
	httpRequests   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		workoutCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workout_tracker_workouts_created_total",
			Help: "作成されたワークアウト記録の合計数",
		}),
		adviceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workout_tracker_advice_latency_seconds",
			Help:    "アドバイス生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		adviceFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workout_tracker_advice_fail_total",
			Help: "アドバイス生成失敗の合計数",
		}),
		activeWatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workout_tracker_active_watches",
			Help: "アクティブなワークアウトのライブ購読数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workout_tracker_http_requests_total",
			Help: "メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.workoutCreated,
		c.adviceLatency,
		c.adviceFail,
		c.activeWatches,
		c.httpRequests,
	)

	return c
}

// RecordWorkoutCreated はワークアウト記録の作成を記録する。
func (c *Collector) RecordWorkoutCreated() {
	c.workoutCreated.Inc()
}

// RecordAdviceRequest はアドバイス生成のレイテンシを記録する。
func (c *Collector) RecordAdviceRequest(durationSeconds float64) {
	c.adviceLatency.Observe(durationSeconds)
}

// RecordAdviceFailure はアドバイス生成失敗を記録する。
func (c *Collector) RecordAdviceFailure() {
	c.adviceFail.Inc()
}

// WatchStarted はライブ購読の開始を記録する。
func (c *Collector) WatchStarted() {
	c.activeWatches.Inc()
}

// WatchStopped はライブ購読の終了を記録する。
func (c *Collector) WatchStopped() {
	c.activeWatches.Dec()
}

// RecordHTTPRequest はHTTPリクエストの完了を記録する。
func (c *Collector) RecordHTTPRequest(method, status string) {
	c.httpRequests.WithLabelValues(method, status).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
