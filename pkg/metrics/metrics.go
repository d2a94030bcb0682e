package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClassifyMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classify_messages_total",
			Help: "Total number of messages processed by classify service (count)",
		},
		[]string{"status"},
	)

	PreviewMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_messages_total",
			Help: "Total number of messages processed by preview service (count)",
		},
		[]string{"status"},
	)

	ClassifyProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classify_processing_duration_ms",
			Help:    "Processing duration for classify service in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	PreviewProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preview_processing_duration_ms",
			Help:    "Processing duration for preview service in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	DerivedCellsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "derived_cells_total",
			Help: "Total number of cell data records derived, by cell kind (count)",
		},
		[]string{"kind"},
	)

	SuppressionActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "suppression_active_rules",
			Help: "Number of active suppression rules (count)",
		},
	)

	SuppressionRuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suppression_rule_evaluations_total",
			Help: "Total number of suppression rule evaluations (count)",
		},
		[]string{"rule_id", "rule_name", "result"},
	)

	NameLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "name_lookups_total",
			Help: "Total number of display name lookups (count)",
		},
		[]string{"provider", "status"},
	)

	NameLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "name_lookup_duration_ms",
			Help:    "Duration of display name lookups in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"provider"},
	)

	NameCacheHitRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "name_cache_hit_rate",
			Help: "Cache hit rate for display name lookups (ratio, 0.0 to 1.0)",
		},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"service", "strategy", "reason"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_message_size_bytes",
			Help:    "Size of Kafka messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"service", "topic", "direction"},
	)

	KafkaConsumerLag = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kafka_consumer_lag",
			Help: "Kafka consumer lag (difference between latest offset and committed offset) (count)",
		},
		[]string{"service", "topic", "partition"},
	)

	KafkaReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_read_duration_ms",
			Help:    "Duration of reading messages from Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"service", "database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "database", "operation"},
	)
)

func RegisterClassifyMetrics() {
	prometheus.MustRegister(ClassifyMessagesTotal)
	prometheus.MustRegister(ClassifyProcessingDuration)
	prometheus.MustRegister(DerivedCellsTotal)
	prometheus.MustRegister(SuppressionActiveRules)
	prometheus.MustRegister(SuppressionRuleEvaluationsTotal)
	registerFallbackUsageTotalOnce()
}

func RegisterPreviewMetrics() {
	prometheus.MustRegister(PreviewMessagesTotal)
	prometheus.MustRegister(PreviewProcessingDuration)
	registerFallbackUsageTotalOnce()
}

func RegisterNamesMetrics() {
	prometheus.MustRegister(NameLookupsTotal)
	prometheus.MustRegister(NameLookupDuration)
	prometheus.MustRegister(NameCacheHitRate)
}

func registerFallbackUsageTotalOnce() {
	prometheus.MustRegister(FallbackUsageTotal)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(DLQMessagesTotal)
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaMessageSizeBytes)
	prometheus.MustRegister(KafkaConsumerLag)
	prometheus.MustRegister(KafkaReadDuration)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterAPIMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
	prometheus.MustRegister(DatabaseQueriesTotal)
	prometheus.MustRegister(DatabaseQueryDuration)
}

func ObserveClassifyDuration(duration time.Duration, status string) {
	ClassifyProcessingDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func ObservePreviewDuration(duration time.Duration, status string) {
	PreviewProcessingDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncDerivedCell(kind string) {
	DerivedCellsTotal.WithLabelValues(kind).Inc()
}

func SetSuppressionActiveRules(count int) {
	SuppressionActiveRules.Set(float64(count))
}

func IncSuppressionRuleEvaluation(ruleID, ruleName, result string) {
	SuppressionRuleEvaluationsTotal.WithLabelValues(ruleID, ruleName, result).Inc()
}

func IncNameLookup(provider, status string) {
	NameLookupsTotal.WithLabelValues(provider, status).Inc()
}

func ObserveNameLookupDuration(provider string, duration time.Duration) {
	NameLookupDuration.WithLabelValues(provider).Observe(float64(duration.Milliseconds()))
}

func SetNameCacheHitRate(rate float64) {
	NameCacheHitRate.Set(rate)
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaMessageSize(service, topic, direction string, sizeBytes int) {
	KafkaMessageSizeBytes.WithLabelValues(service, topic, direction).Observe(float64(sizeBytes))
}

func SetKafkaConsumerLag(service, topic string, partition int, lag int64) {
	KafkaConsumerLag.WithLabelValues(service, topic, fmt.Sprintf("%d", partition)).Set(float64(lag))
}

func ObserveKafkaReadDuration(service, topic string, duration time.Duration) {
	KafkaReadDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncDatabaseQuery(service, database, operation, status string) {
	DatabaseQueriesTotal.WithLabelValues(service, database, operation, status).Inc()
}

func ObserveDatabaseQueryDuration(service, database, operation string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(service, database, operation).Observe(float64(duration.Milliseconds()))
}
