package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMonitor_TrackPurchase(t *testing.T) {
	m := NewMonitor(nil)
	before := testutil.ToFloat64(ticketsIssued.WithLabelValues("e-test"))

	m.TrackPurchase("e-test", "success", 3)
	m.TrackPurchase("e-test", "insufficient_funds", 0)

	assert.Equal(t, before+3, testutil.ToFloat64(ticketsIssued.WithLabelValues("e-test")))
	assert.Equal(t, float64(1), testutil.ToFloat64(purchases.WithLabelValues("e-test", "insufficient_funds")))
}

func TestMonitor_SetBalance(t *testing.T) {
	m := NewMonitor(nil)

	m.SetBalance(decimal.RequireFromString("167.50"))

	assert.Equal(t, 167.5, testutil.ToFloat64(walletBalance))
}

func TestMonitor_ObserveAssistant(t *testing.T) {
	m := NewMonitor(nil)
	before := testutil.ToFloat64(assistantRequests.WithLabelValues("empty"))

	m.ObserveAssistant("empty", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(assistantRequests.WithLabelValues("empty")))
}

func TestMonitor_CollectRedisMetrics(t *testing.T) {
	db, mock := redismock.NewClientMock()
	m := NewMonitor(db)

	mock.ExpectPing().SetVal("PONG")
	m.collectRedisMetrics(context.Background())
	assert.Equal(t, float64(1), testutil.ToFloat64(redisUp))

	mock.ExpectPing().SetErr(errors.New("down"))
	m.collectRedisMetrics(context.Background())
	assert.Equal(t, float64(0), testutil.ToFloat64(redisUp))

	assert.NoError(t, mock.ExpectationsWereMet())
}
