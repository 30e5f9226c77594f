package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type RegistryMetrics struct {
	// per member economics
	userStake          *prometheus.GaugeVec
	userCommissionRate *prometheus.GaugeVec
	userBalance        *prometheus.GaugeVec
	userRewards        *prometheus.CounterVec
	// global economics
	stakeSupply      prometheus.Gauge
	minGasPrice      prometheus.Gauge
	heldBalance      prometheus.Gauge
	committeeSize    prometheus.Gauge
	maxCommitteeSize prometheus.Gauge
	totalRewards     prometheus.Counter
	// operations
	rejectedOps *prometheus.CounterVec
}

// Declare a package-level variable for sync.Once to ensure metrics are registered only once
var registryMetricsRegisterOnce sync.Once

// Declare a variable to hold the instance of RegistryMetrics
var registryMetricsInstance *RegistryMetrics

// NewRegistryMetrics initializes and registers the metrics, using sync.Once to ensure it's done only once
func NewRegistryMetrics() *RegistryMetrics {
	registryMetricsRegisterOnce.Do(func() {
		registryMetricsInstance = &RegistryMetrics{
			userStake: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "registry_user_stake",
				Help: "Stake held by a registered member",
			}, []string{"address", "role"}),
			userCommissionRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "registry_user_commission_rate",
				Help: "Commission rate of a registered member as a fraction",
			}, []string{"address", "role"}),
			userBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "registry_user_balance",
				Help: "Fees credited to an account by fee distribution",
			}, []string{"address"}),
			userRewards: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "registry_user_rewards_total",
				Help: "Total fees paid to an account",
			}, []string{"address"}),
			stakeSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "registry_stake_supply",
				Help: "Total stake tracked by the registry",
			}),
			minGasPrice: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "registry_minimum_gas_price",
				Help: "Minimum gas price set by the operator",
			}),
			heldBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "registry_held_balance",
				Help: "Funds held by the registry awaiting distribution",
			}),
			committeeSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "registry_committee_size",
				Help: "Number of members in the current committee",
			}),
			maxCommitteeSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "registry_max_committee_size",
				Help: "Configured maximum committee size",
			}),
			totalRewards: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "registry_rewards_distributed_total",
				Help: "Total fees paid out by all finalize calls",
			}),
			rejectedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "registry_rejected_operations_total",
				Help: "Registry operations that failed, by operation and error code",
			}, []string{"operation", "code"}),
		}

		prometheus.MustRegister(registryMetricsInstance.userStake)
		prometheus.MustRegister(registryMetricsInstance.userCommissionRate)
		prometheus.MustRegister(registryMetricsInstance.userBalance)
		prometheus.MustRegister(registryMetricsInstance.userRewards)
		prometheus.MustRegister(registryMetricsInstance.stakeSupply)
		prometheus.MustRegister(registryMetricsInstance.minGasPrice)
		prometheus.MustRegister(registryMetricsInstance.heldBalance)
		prometheus.MustRegister(registryMetricsInstance.committeeSize)
		prometheus.MustRegister(registryMetricsInstance.maxCommitteeSize)
		prometheus.MustRegister(registryMetricsInstance.totalRewards)
		prometheus.MustRegister(registryMetricsInstance.rejectedOps)
	})
	return registryMetricsInstance
}

// RecordMember records the stake and commission of a member
func (rm *RegistryMetrics) RecordMember(address, role string, stake uint64, commissionRate float64) {
	rm.userStake.WithLabelValues(address, role).Set(float64(stake))
	rm.userCommissionRate.WithLabelValues(address, role).Set(commissionRate)
}

// RemoveMember drops the series of a member that left the registry
func (rm *RegistryMetrics) RemoveMember(address, role string) {
	rm.userStake.DeleteLabelValues(address, role)
	rm.userCommissionRate.DeleteLabelValues(address, role)
}

func (rm *RegistryMetrics) RecordBalance(address string, balance uint64) {
	rm.userBalance.WithLabelValues(address).Set(float64(balance))
}

// RecordPayout counts fees paid to an account by one distribution
func (rm *RegistryMetrics) RecordPayout(address string, amount uint64) {
	rm.userRewards.WithLabelValues(address).Add(float64(amount))
	rm.totalRewards.Add(float64(amount))
}

func (rm *RegistryMetrics) RecordStakeSupply(supply uint64) {
	rm.stakeSupply.Set(float64(supply))
}

func (rm *RegistryMetrics) RecordMinGasPrice(price uint64) {
	rm.minGasPrice.Set(float64(price))
}

func (rm *RegistryMetrics) RecordHeldBalance(balance uint64) {
	rm.heldBalance.Set(float64(balance))
}

func (rm *RegistryMetrics) RecordCommittee(size int, maxSize uint64) {
	rm.committeeSize.Set(float64(size))
	rm.maxCommitteeSize.Set(float64(maxSize))
}

// IncrementRejectedOps counts a failed registry operation
func (rm *RegistryMetrics) IncrementRejectedOps(operation string, code uint32) {
	rm.rejectedOps.WithLabelValues(operation, strconv.FormatUint(uint64(code), 10)).Inc()
}
