package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rewardOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_operations_total",
			Help: "Reward operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)
	referralCascades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_cascades_total",
			Help: "Referral reward cascades by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(rewardOps)
	prometheus.MustRegister(referralCascades)
}
