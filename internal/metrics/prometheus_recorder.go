package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	assetCopies  *prom.CounterVec
	discovered   *prom.CounterVec
	pageOutcomes *prom.CounterVec
	pageDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers the pipeline metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		assetCopies: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pageassets",
			Name:      "asset_copies_total",
			Help:      "Copy-if-needed decisions by result",
		}, []string{"result"}),
		discovered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pageassets",
			Name:      "assets_discovered_total",
			Help:      "Asset references or files discovered per mode",
		}, []string{"mode"}),
		pageOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pageassets",
			Name:      "pages_total",
			Help:      "Pages seen by the transform by outcome",
		}, []string{"mode", "outcome"}),
		pageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pageassets",
			Name:      "page_duration_seconds",
			Help:      "Duration of the asset transform per page",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
	}
	reg.MustRegister(pr.assetCopies, pr.discovered, pr.pageOutcomes, pr.pageDuration)
	return pr
}

func (p *PrometheusRecorder) IncAssetCopy(result CopyResult) {
	if p == nil {
		return
	}
	p.assetCopies.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddAssetsDiscovered(mode string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.discovered.WithLabelValues(mode).Add(float64(n))
}

func (p *PrometheusRecorder) IncPageOutcome(mode string, outcome PageOutcome) {
	if p == nil {
		return
	}
	p.pageOutcomes.WithLabelValues(mode, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObservePageDuration(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.pageDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// WriteTextfile writes every metric gathered from g to path in the text exposition
// format (node-exporter textfile collector layout).
func WriteTextfile(path string, g prom.Gatherer) error {
	return prom.WriteToTextfile(path, g)
}
