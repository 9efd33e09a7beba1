package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision pipeline counters and histograms.

var (
	// Transfers
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "transfer",
		Name:      "requests_total",
		Help:      "Total transfer requests by final status",
	}, []string{"status"})

	RiskAssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "risk",
		Name:      "assessments_total",
		Help:      "Total risk assessments by level",
	}, []string{"level"})

	HardLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "risk",
		Name:      "hard_limit_rejections_total",
		Help:      "Transfers rejected for exceeding the per-transaction limit",
	})

	GasRecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "gas",
		Name:      "recommendations_total",
		Help:      "Total gas recommendations by action and congestion",
	}, []string{"action", "congestion"})

	GasSavingsGwei = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "advisor",
		Subsystem: "gas",
		Name:      "savings_gwei",
		Help:      "Gas price savings versus the requested target",
		Buckets:   []float64{0, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})

	TransferLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "advisor",
		Subsystem: "transfer",
		Name:      "pipeline_duration_seconds",
		Help:      "Transfer pipeline duration up to submission",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// Strategies
	StrategyRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "strategy",
		Name:      "runs_total",
		Help:      "Total strategy runs by asset and action",
	}, []string{"asset", "action"})

	StrategyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "strategy",
		Name:      "errors_total",
		Help:      "Total failed strategy runs",
	}, []string{"asset"})

	StrategyTickSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "strategy",
		Name:      "tick_skipped_total",
		Help:      "Strategies skipped by the cooldown and overlap guard",
	})

	// Learning
	LearningConfidence = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "advisor",
		Subsystem: "learning",
		Name:      "confidence_score",
		Help:      "Current learning confidence score",
	})

	LearningSuccessRate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "advisor",
		Subsystem: "learning",
		Name:      "success_rate",
		Help:      "Current learning success rate",
	})

	// Collaborators
	ExternalRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advisor",
		Subsystem: "collaborator",
		Name:      "requests_total",
		Help:      "Outbound collaborator requests by source and result",
	}, []string{"source", "result"})
)
