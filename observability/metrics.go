package observability

import (
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"launchpad/core/amount"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	saleMetricsOnce sync.Once
	saleRegistry    *SaleMetrics

	vestingMetricsOnce sync.Once
	vestingRegistry    *VestingMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module errors segmented by module, method, and error code.",
			}, []string{"module", "method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "launchpad",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "launchpad",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of module requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. code is the engine error
// code, or "" on success.
func (m *moduleMetrics) Observe(module, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != "" {
		outcome = "error"
		m.errors.WithLabelValues(module, method, code).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// SaleMetrics exposes gauges describing the current sale.
type SaleMetrics struct {
	raised       prometheus.Gauge
	allocated    prometheus.Gauge
	participants prometheus.Gauge
	claimed      prometheus.Gauge
	refunded     prometheus.Gauge
	phase        prometheus.Gauge
	paused       prometheus.Gauge
}

// Sale returns the lazily-initialised sale gauges.
func Sale() *SaleMetrics {
	saleMetricsOnce.Do(func() {
		gauge := func(name, help string) prometheus.Gauge {
			return prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "launchpad",
				Subsystem: "sale",
				Name:      name,
				Help:      help,
			})
		}
		saleRegistry = &SaleMetrics{
			raised:       gauge("raised", "Total payment raised, in whole payment units."),
			allocated:    gauge("allocated_tokens", "Total tokens allocated to participants, in whole tokens."),
			participants: gauge("participants", "Number of distinct participants."),
			claimed:      gauge("claimed_participants", "Participants that claimed their allocation."),
			refunded:     gauge("refunded_participants", "Participants that took a refund."),
			phase:        gauge("phase", "Stored sale phase (0=PREPARATION .. 4=ENDED)."),
			paused:       gauge("paused", "1 while purchases are paused."),
		}
		prometheus.MustRegister(
			saleRegistry.raised,
			saleRegistry.allocated,
			saleRegistry.participants,
			saleRegistry.claimed,
			saleRegistry.refunded,
			saleRegistry.phase,
			saleRegistry.paused,
		)
	})
	return saleRegistry
}

// SaleSnapshot carries the values published by SaleMetrics.Update.
type SaleSnapshot struct {
	Phase          uint8
	Paused         bool
	TotalRaised    amount.Amount
	TotalAllocated amount.Amount
	Participants   uint64
	Claimed        uint64
	Refunded       uint64
}

// Update publishes the snapshot.
func (m *SaleMetrics) Update(s SaleSnapshot) {
	if m == nil {
		return
	}
	m.raised.Set(AmountFloat(s.TotalRaised))
	m.allocated.Set(AmountFloat(s.TotalAllocated))
	m.participants.Set(float64(s.Participants))
	m.claimed.Set(float64(s.Claimed))
	m.refunded.Set(float64(s.Refunded))
	m.phase.Set(float64(s.Phase))
	if s.Paused {
		m.paused.Set(1)
	} else {
		m.paused.Set(0)
	}
}

// VestingMetrics exposes gauges describing the vesting engine.
type VestingMetrics struct {
	vesting       prometheus.Gauge
	released      prometheus.Gauge
	beneficiaries prometheus.Gauge
}

// Vesting returns the lazily-initialised vesting gauges.
func Vesting() *VestingMetrics {
	vestingMetricsOnce.Do(func() {
		gauge := func(name, help string) prometheus.Gauge {
			return prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "launchpad",
				Subsystem: "vesting",
				Name:      name,
				Help:      help,
			})
		}
		vestingRegistry = &VestingMetrics{
			vesting:       gauge("total_vesting", "Granted tokens net of forfeitures, in whole tokens."),
			released:      gauge("total_released", "Tokens released to beneficiaries, in whole tokens."),
			beneficiaries: gauge("beneficiaries", "Number of distinct beneficiaries."),
		}
		prometheus.MustRegister(vestingRegistry.vesting, vestingRegistry.released, vestingRegistry.beneficiaries)
	})
	return vestingRegistry
}

// Update publishes vesting totals.
func (m *VestingMetrics) Update(totalVesting, totalReleased amount.Amount, beneficiaries int) {
	if m == nil {
		return
	}
	m.vesting.Set(AmountFloat(totalVesting))
	m.released.Set(AmountFloat(totalReleased))
	m.beneficiaries.Set(float64(beneficiaries))
}

// AmountFloat converts an amount to whole units for gauges. Precision loss is
// acceptable for dashboards only.
func AmountFloat(a amount.Amount) float64 {
	value := new(big.Float).SetInt(a.Big())
	if a.Decimals() > 0 {
		scale := new(big.Float).SetInt(amount.Pow10(a.Decimals()).ToBig())
		value.Quo(value, scale)
	}
	out, _ := value.Float64()
	return out
}
