package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"launchpad/core/amount"
	"launchpad/core/events"
)

func TestAmountFloat(t *testing.T) {
	require.InDelta(t, 6666.666666, AmountFloat(amount.MustParse("6666.666666666666666666", 18)), 1e-6)
	require.Equal(t, float64(82), AmountFloat(amount.FromUint64(82, 0)))
	require.Equal(t, float64(0), AmountFloat(amount.Zero(18)))
}

func TestModuleMetricsObserve(t *testing.T) {
	metrics := ModuleMetrics()
	metrics.Observe("sale", "sale_purchase", "", time.Millisecond)
	metrics.Observe("sale", "sale_purchase", "HardCapReached", time.Millisecond)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("sale", "sale_purchase", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.errors.WithLabelValues("sale", "sale_purchase", "HardCapReached")))
	metrics.RecordThrottle("", "")
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.throttles.WithLabelValues("unknown", "unspecified")))
}

func TestSaleAndVestingGauges(t *testing.T) {
	Sale().Update(SaleSnapshot{
		Phase:        3,
		Paused:       true,
		TotalRaised:  amount.MustParse("22500", 18),
		Participants: 3,
	})
	require.Equal(t, float64(22500), testutil.ToFloat64(Sale().raised))
	require.Equal(t, float64(3), testutil.ToFloat64(Sale().phase))
	require.Equal(t, float64(1), testutil.ToFloat64(Sale().paused))

	Vesting().Update(amount.FromUint64(1200, 0), amount.FromUint64(200, 0), 2)
	require.Equal(t, float64(1200), testutil.ToFloat64(Vesting().vesting))
	require.Equal(t, float64(2), testutil.ToFloat64(Vesting().beneficiaries))
}

func TestEventMetricsCountByType(t *testing.T) {
	fan := events.Fanout{Events()}
	fan.Emit(events.SaleStarted{})
	fan.Emit(events.SaleStarted{})
	require.Equal(t, float64(2), testutil.ToFloat64(Events().emitted.WithLabelValues(events.TypeSaleStarted)))
}
