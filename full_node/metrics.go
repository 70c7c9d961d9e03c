package full_node

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusTxAccepted     prometheus.Counter
	prometheusTxRejected     *prometheus.CounterVec
	prometheusFees           prometheus.Counter
	prometheusLedgerSize     prometheus.Gauge
	prometheusPendingTxs     prometheus.Gauge
	prometheusSettleDuration prometheus.Histogram

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusTxAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "utxo_ledger_tx_accepted_total",
			Help: "Number of transactions accepted by settlement",
		},
	)
	prometheusTxRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "utxo_ledger_tx_rejected_total",
			Help: "Number of transactions rejected, by the rule they broke",
		},
		[]string{
			"reason",
		},
	)
	prometheusFees = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "utxo_ledger_implicit_fees_total",
			Help: "Value that vanished from accepted transactions whose inputs exceed their outputs",
		},
	)
	prometheusLedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "utxo_ledger_spendable_outputs",
			Help: "Number of spendable outputs in the ledger",
		},
	)
	prometheusPendingTxs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "utxo_ledger_pending_txs",
			Help: "Number of transactions waiting for the next epoch",
		},
	)
	prometheusSettleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "utxo_ledger_settle_duration_seconds",
			Help:    "Time spent settling one batch",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
}
