// Package metrics 評估流程的 Prometheus 指標，註冊在獨立的 Registry 上。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/ablab/errs"
)

const namespace = "ablab"

// 執行結果標籤
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics nil 值可安全呼叫，所有方法都會直接返回。
type Metrics struct {
	reg      *prometheus.Registry
	runs     *prometheus.CounterVec
	excluded *prometheus.CounterVec
	stage    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Evaluation runs by client and status (status=error carries the error code).",
		}, []string{"client", "status"}),
		excluded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fit_excluded_total",
			Help:      "Distribution families excluded because the fit failed.",
		}, []string{"family"}),
		stage: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"stage"}),
	}
}

// RunDone 記錄一次執行結果
func (m *Metrics) RunDone(client string, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
		if e, ok := errs.AsErr(err); ok && e.Code != errs.Unclassified {
			status = e.Code.String()
		}
	}
	m.runs.WithLabelValues(client, status).Inc()
}

// FitExcluded 記錄被排除的分布族
func (m *Metrics) FitExcluded(family string) {
	if m == nil {
		return
	}
	m.excluded.WithLabelValues(family).Inc()
}

// ObserveStage 記錄階段耗時
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stage.WithLabelValues(stage).Observe(d.Seconds())
}

// Gatherer 給測試與外部匯出使用
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// Handler /metrics 端點。壓縮交給 server 的 Compression middleware。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg, DisableCompression: true})
}
