// Package observability holds the tracing and Prometheus instrumentation shared by the API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charity_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "charity_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DonationsTotal counts recorded donor entries by campaign category.
	DonationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charity_donations_total",
		Help: "Total number of donations recorded",
	}, []string{"category"})

	// DonatedAmount sums donated amounts by currency.
	DonatedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charity_donated_amount_total",
		Help: "Total donated amount by currency",
	}, []string{"currency"})

	// DonationRejections counts donations refused by business rules.
	DonationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charity_donation_rejections_total",
		Help: "Donations rejected by reason",
	}, []string{"reason"})

	// ForumReactions counts like/dislike reactions.
	ForumReactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charity_forum_reactions_total",
		Help: "Forum post reactions by kind",
	}, []string{"kind"})

	// ForumComments counts comment mutations by action.
	ForumComments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charity_forum_comments_total",
		Help: "Forum comment operations by action",
	}, []string{"action"})

	// CampaignsExpired counts campaigns flipped to expired by the sweeper.
	CampaignsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charity_campaigns_expired_total",
		Help: "Campaigns marked expired by the background sweep",
	})
)

const queryStartKey = "observability:query_start"

// RegisterGormMetrics hooks query latency observation into every GORM operation on db.
func RegisterGormMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", before),
		cb.Create().After("gorm:create").Register("metrics:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", before),
		cb.Query().After("gorm:query").Register("metrics:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", before),
		cb.Update().After("gorm:update").Register("metrics:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw")),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	return nil
}
