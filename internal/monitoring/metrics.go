package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesScrapedTotal prometheus.Counter
	AttemptsTotal     prometheus.Counter
	RowsExtracted     prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	ScrapeDuration    prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		PagesScrapedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_pages_scraped_total",
			Help: "The total number of chart pages successfully scraped",
		}),
		AttemptsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_attempts_total",
			Help: "The total number of navigate-locate-extract attempts",
		}),
		RowsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scraper_rows_extracted_total",
			Help: "The total number of chart rows accepted into output",
		}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of scrape failures by kind",
		}, []string{"type"}), // e.g. 'locator_exhausted', 'empty_table', 'blocked'
		ScrapeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_page_duration_seconds",
			Help:    "Time to scrape one chart page, successful attempts only",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncPagesScraped() {
	m.PagesScrapedTotal.Inc()
}

func (m *Metrics) IncAttempts() {
	m.AttemptsTotal.Inc()
}

func (m *Metrics) AddRowsExtracted(n int) {
	m.RowsExtracted.Add(float64(n))
}

func (m *Metrics) IncErrors(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) ObserveScrapeDuration(d time.Duration) {
	m.ScrapeDuration.Observe(d.Seconds())
}
