package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TxMetrics 交易提交与确认的指标
type TxMetrics struct {
	SubmittedTotal       *prometheus.CounterVec
	ConfirmPollsTotal    *prometheus.CounterVec
	ConfirmDuration      prometheus.Histogram
	EnvelopeRejectsTotal *prometheus.CounterVec
}

// Tx 为 nil 时所有记录函数都是空操作 (CLI 不暴露指标)
var Tx *TxMetrics

// InitTxMetrics 初始化交易指标，只能调用一次，一般通过 Init 调用
func InitTxMetrics() {
	Tx = &TxMetrics{
		SubmittedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_tx_submitted_total",
			Help: "Raw transactions sent to the node, by type and result",
		}, []string{"type", "result"}),
		ConfirmPollsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_confirm_polls_total",
			Help: "Receipt polls, by result",
		}, []string{"result"}),
		ConfirmDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "signer_confirm_duration_seconds",
			Help:    "Time from the first receipt poll to inclusion",
			Buckets: []float64{1, 2, 5, 12, 30, 60, 120, 300},
		}),
		EnvelopeRejectsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "signer_envelope_rejects_total",
			Help: "Envelopes rejected by the decoder, by reason",
		}, []string{"reason"}),
	}
}

func ObserveSubmit(txType, result string) {
	if Tx != nil {
		Tx.SubmittedTotal.WithLabelValues(txType, result).Inc()
	}
}

func ObservePoll(result string) {
	if Tx != nil {
		Tx.ConfirmPollsTotal.WithLabelValues(result).Inc()
	}
}

func ObserveConfirmed(elapsed time.Duration) {
	if Tx != nil {
		Tx.ConfirmDuration.Observe(elapsed.Seconds())
	}
}

func ObserveEnvelopeReject(reason string) {
	if Tx != nil {
		Tx.EnvelopeRejectsTotal.WithLabelValues(reason).Inc()
	}
}
