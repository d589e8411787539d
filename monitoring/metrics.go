package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var (
	purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_purchases_total",
			Help: "Checkout attempts per event and result",
		},
		[]string{"event_id", "result"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_tickets_issued_total",
			Help: "Tickets issued per event",
		},
		[]string{"event_id"},
	)

	deposits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_deposits_total",
			Help: "Wallet deposits per result",
		},
		[]string{"result"},
	)

	walletBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_wallet_balance",
			Help: "Current wallet balance",
		},
	)

	assistantRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_requests_total",
			Help: "Assistant requests per outcome",
		},
		[]string{"outcome"},
	)

	assistantLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_request_duration_seconds",
			Help:    "Duration of recommender calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	redisUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redis_up",
			Help: "Whether the last Redis ping succeeded",
		},
	)
)

type Monitor struct {
	redis *redis.Client
}

// NewMonitor returns a monitor; redisClient may be nil when Redis is not
// configured.
func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

// Start samples Redis health every interval until ctx is done.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if m.redis == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.collectRedisMetrics(ctx)
			}
		}
	}()
}

func (m *Monitor) collectRedisMetrics(ctx context.Context) {
	if err := m.redis.Ping(ctx).Err(); err != nil {
		redisUp.Set(0)
		return
	}
	redisUp.Set(1)
}

func (m *Monitor) TrackPurchase(eventID, result string, units int) {
	purchases.WithLabelValues(eventID, result).Inc()
	if units > 0 {
		ticketsIssued.WithLabelValues(eventID).Add(float64(units))
	}
}

func (m *Monitor) TrackDeposit(result string) {
	deposits.WithLabelValues(result).Inc()
}

func (m *Monitor) SetBalance(balance decimal.Decimal) {
	walletBalance.Set(balance.InexactFloat64())
}

// ObserveAssistant records one recommender call.
func (m *Monitor) ObserveAssistant(outcome string, elapsed time.Duration) {
	assistantRequests.WithLabelValues(outcome).Inc()
	assistantLatency.Observe(elapsed.Seconds())
}

func (m *Monitor) TrackRateLimited(route string) {
	rateLimited.WithLabelValues(route).Inc()
}
