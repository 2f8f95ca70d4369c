package s3_revenue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

func ptr[T any](v T) *T { return &v }

func newTestEngine() *Engine {
	return NewEngine(modelconfig.Default().Revenue, logger.NewNop())
}

func TestCompute_ZeroDemand(t *testing.T) {
	res := ComputeRevenueExposure(0, 0.05, 0.02, ptr(1000.0))

	assert.Equal(t, contracts.ExposureWindow{}, res.RevenueExposureWindow)
	assert.Equal(t, 1000.0, res.AvgDealValue)
	assert.False(t, res.AvgDealValueDefaulted)
}

func TestCompute_Tiers(t *testing.T) {
	res := newTestEngine().Compute(10000, 0.05, 0.02, ptr(1000.0))

	// 10000 × .05 × .02 × 1000 = 10000 per month before capture
	w := res.RevenueExposureWindow
	assert.InDelta(t, 1000.0, w.Conservative, 1e-6)
	assert.InDelta(t, 2500.0, w.Strategic, 1e-6)
	assert.InDelta(t, 5000.0, w.Dominance, 1e-6)
}

func TestCompute_DefaultDealValue(t *testing.T) {
	res := newTestEngine().Compute(1000, 0.1, 0.1, nil)
	assert.True(t, res.AvgDealValueDefaulted)
	assert.Equal(t, 2500.0, res.AvgDealValue)
	assert.InDelta(t, 2500.0*0.5*10, res.RevenueExposureWindow.Dominance, 1e-6)
}

func TestCompute_NegativeFactorsClampToZero(t *testing.T) {
	res := newTestEngine().Compute(-5, math.NaN(), 0.02, ptr(-10.0))
	assert.Equal(t, 0.0, res.SearchDemand)
	assert.Equal(t, 0.0, res.CTRBenchmark)
	assert.Equal(t, 0.0, res.AvgDealValue)
	assert.Equal(t, contracts.ExposureWindow{}, res.RevenueExposureWindow)
}

func TestCompute_MonotonicAndLinearInDealValue(t *testing.T) {
	e := newTestEngine()
	demands := []float64{0, 1, 120, 5_000, 2_500_000}
	ctrs := []float64{0, 0.001, 0.03, 0.4, 1}
	convs := []float64{0, 0.005, 0.02, 0.3}
	deals := []float64{0, 1, 99.5, 2500, 1e6}
	scales := []float64{0, 0.5, 2, 7.25}

	for _, d := range demands {
		for _, c := range ctrs {
			for _, cv := range convs {
				for _, dv := range deals {
					base := e.Compute(d, c, cv, ptr(dv)).RevenueExposureWindow
					if !(base.Conservative <= base.Strategic && base.Strategic <= base.Dominance) {
						t.Fatalf("window not monotonic: %+v", base)
					}

					for _, k := range scales {
						scaled := e.Compute(d, c, cv, ptr(dv*k)).RevenueExposureWindow
						tol := 1e-9 * math.Max(1, base.Dominance*k)
						assert.InDelta(t, base.Conservative*k, scaled.Conservative, tol)
						assert.InDelta(t, base.Strategic*k, scaled.Strategic, tol)
						assert.InDelta(t, base.Dominance*k, scaled.Dominance, tol)
					}
				}
			}
		}
	}
}

func TestInputsFromBundle(t *testing.T) {
	e := newTestEngine()

	t.Run("summary and industry", func(t *testing.T) {
		in := e.InputsFromBundle(&contracts.SignalBundle{
			Industry:   "Legal",
			GSCSummary: &contracts.GSCSummary{TotalImpressions: 42000, AvgCTR: 0.045},
		})
		assert.Equal(t, 42000.0, in.SearchDemand)
		assert.Equal(t, 0.045, in.CTRBenchmark)
		assert.Equal(t, 0.035, in.ConversionRate)
	})

	t.Run("rows fallback", func(t *testing.T) {
		in := e.InputsFromBundle(&contracts.SignalBundle{
			GSCRows: []contracts.GSCRow{{Clicks: 5, Impressions: 100}, {Clicks: 5, Impressions: 400}},
		})
		assert.Equal(t, 500.0, in.SearchDemand)
		assert.InDelta(t, 0.02, in.CTRBenchmark, 1e-12)
		assert.Equal(t, 0.02, in.ConversionRate)
	})

	t.Run("empty summary falls back to rows", func(t *testing.T) {
		in := e.InputsFromBundle(&contracts.SignalBundle{
			GSCSummary: &contracts.GSCSummary{},
			GSCRows:    []contracts.GSCRow{{Clicks: 300, Impressions: 10000, Position: 4}},
		})
		assert.Equal(t, 10000.0, in.SearchDemand)
		assert.InDelta(t, 0.03, in.CTRBenchmark, 1e-12)
	})

	t.Run("nothing", func(t *testing.T) {
		in := e.InputsFromBundle(nil)
		assert.Equal(t, 0.0, in.SearchDemand)
		assert.Equal(t, 0.03, in.CTRBenchmark)
		assert.Equal(t, 0.02, in.ConversionRate)
	})
}
