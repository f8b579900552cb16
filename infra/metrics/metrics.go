package metrics

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	protocols "github.com/giovaniif/fundraising/protocols"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// NormalizePath keeps the first path segment so ids never become label values.
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if idx := strings.Index(p, "/"); idx >= 0 {
		p = p[:idx]
	}
	if p == "" {
		return "root"
	}
	return p
}

func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}
	start := time.Now()
	c.Next()
	duration := time.Since(start).Seconds()
	path := NormalizePath(c.Request.URL.Path)
	status := strconv.Itoa(c.Writer.Status())
	RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	RequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// methodLabels is the closed set of payment_method label values. Anything a
// client sends outside it is counted as "other".
var methodLabels = map[string]struct{}{
	"paypal": {},
	"stripe": {},
	"card":   {},
	"cash":   {},
}

func methodLabel(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if _, ok := methodLabels[method]; ok {
		return method
	}
	return "other"
}

// DonationMetrics counts recorded donations and mirrors each center's totals
// as gauges. It is fed through the event publisher chain.
type DonationMetrics struct {
	donations   *prometheus.CounterVec
	amount      *prometheus.CounterVec
	fundsRaised *prometheus.GaugeVec
	donors      *prometheus.GaugeVec

	mutex sync.Mutex
	// donors count behind the gauges, per center. Events can arrive out of
	// order, so the gauges only move forward.
	lastDonors map[string]int
}

func NewDonationMetrics(registerer prometheus.Registerer) *DonationMetrics {
	factory := promauto.With(registerer)
	return &DonationMetrics{
		donations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donations_total",
			Help: "Donations recorded in the ledger",
		}, []string{"method", "status", "currency"}),
		amount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "donations_amount_total",
			Help: "Sum of recorded donation amounts",
		}, []string{"currency"}),
		fundsRaised: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "center_funds_raised",
			Help: "Funds raised per center",
		}, []string{"center"}),
		donors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "center_donors",
			Help: "Donations counted per center",
		}, []string{"center"}),
		lastDonors: make(map[string]int),
	}
}

func (m *DonationMetrics) Publish(ctx context.Context, event protocols.DonationRecorded) error {
	d := event.Donation
	m.donations.WithLabelValues(methodLabel(d.PaymentMethod), string(d.Status), d.Currency).Inc()
	m.amount.WithLabelValues(d.Currency).Add(d.Amount.InexactFloat64())

	m.mutex.Lock()
	defer m.mutex.Unlock()
	c := event.Center
	if c.Donors <= m.lastDonors[c.Id] {
		return nil
	}
	m.lastDonors[c.Id] = c.Donors
	m.fundsRaised.WithLabelValues(c.Id).Set(c.FundsRaised.InexactFloat64())
	m.donors.WithLabelValues(c.Id).Set(float64(c.Donors))
	return nil
}
