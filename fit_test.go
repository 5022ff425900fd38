package hbond

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//synthSolver wires a decay curve straight into an analyzer, so the fit
//can be exercised on data with known parameters.
func synthSolver(mode BondLifetime, sampleTime float64, time, data []float64) *AutoCorrel {
	o := DefaultOptions()
	o.SampleTime(sampleTime)
	return &AutoCorrel{mode: mode, o: o, sol: &Solution{Mode: mode, Time: time, Results: data}}
}

func grid(n int, step float64) []float64 {
	g := make([]float64, n)
	for i := range g {
		g[i] = float64(i) * step
	}
	return g
}

func TestSolveContinuousRecovery(t *testing.T) {
	truth := []float64{0.6, 70, 12}
	time := grid(100, 1.5)
	data := make([]float64, len(time))
	for i, ti := range time {
		data[i] = continuousModel(truth, ti)
	}
	A := synthSolver(Continuous, 10, time, data)
	require.NoError(t, A.Solve())
	sol := A.Solution()
	require.True(t, sol.Converged, "message: %s", sol.Message)
	require.Len(t, sol.Fit, 3)
	assert.InDelta(t, truth[0], sol.Fit[0], 1e-3, "amplitude")
	assert.InEpsilon(t, truth[1], sol.Fit[1], 0.01, "slow tau")
	assert.InEpsilon(t, truth[2], sol.Fit[2], 0.01, "fast tau")
	assert.InDelta(t, 0.6*70+0.4*12, sol.Tau, 0.5, "integrated lifetime")
	assert.Greater(t, sol.RSq, 0.9999)
	require.Len(t, sol.Estimate, len(time))
	assert.InDelta(t, 1.0, sol.Estimate[0], 1e-3)
}

func TestSolveIntermittentRecovery(t *testing.T) {
	truth := []float64{0.35, 0.4, 90, 14, 1.2}
	time := grid(301, 0.4)
	data := make([]float64, len(time))
	for i, ti := range time {
		data[i] = intermittentModel(truth, ti)
	}
	A := synthSolver(Intermittent, 10, time, data)
	require.NoError(t, A.Solve())
	sol := A.Solution()
	require.True(t, sol.Converged, "message: %s", sol.Message)
	require.Len(t, sol.Fit, 5)
	assert.InDelta(t, truth[0], sol.Fit[0], 5e-3)
	assert.InDelta(t, truth[1], sol.Fit[1], 5e-3)
	assert.InEpsilon(t, truth[2], sol.Fit[2], 0.02)
	assert.InEpsilon(t, truth[3], sol.Fit[3], 0.02)
	assert.InEpsilon(t, truth[4], sol.Fit[4], 0.02)
	assert.InDelta(t, 0.35*90+0.4*14+0.25*1.2, sol.Tau, 0.5)
	assert.Greater(t, sol.RSq, 0.999)
}

//Starting the search on the exact answer must end on the exact answer.
func TestSolveExplicitGuess(t *testing.T) {
	truth := []float64{0.5, 40, 5}
	time := grid(80, 1.0)
	data := make([]float64, len(time))
	for i, ti := range time {
		data[i] = continuousModel(truth, ti)
	}
	A := synthSolver(Continuous, 10, time, data)
	require.NoError(t, A.Solve([]float64{0.5, 40, 5}))
	sol := A.Solution()
	require.True(t, sol.Converged)
	for i := range truth {
		assert.InDelta(t, truth[i], sol.Fit[i], 1e-5)
	}
}

func TestSolveValidation(t *testing.T) {
	A := &AutoCorrel{mode: Continuous, o: DefaultOptions()}
	err := A.Solve()
	require.Error(t, err, "a fit with no results to fit")
	assert.Equal(t, ErrNoResults, err.Error())

	B := synthSolver(Continuous, 10, grid(10, 1), grid(10, 1))
	err = B.Solve([]float64{0.5, 1, 2, 3, 4})
	require.Error(t, err, "a 5-parameter guess on the 3-parameter model")
}

func TestIntegratedTau(t *testing.T) {
	assert.InDelta(t, 0.7*80+0.3*8, integratedTau([]float64{0.7, 80, 8}, 1), 1e-12)
	assert.InDelta(t, 0.4*120+0.35*15+0.25*1.5, integratedTau([]float64{0.4, 0.35, 120, 15, 1.5}, 2), 1e-12)
}

func TestFitBounds(t *testing.T) {
	assert.True(t, inBounds([]float64{0.5, 10, 1}, 1))
	assert.False(t, inBounds([]float64{1.2, 10, 1}, 1), "amplitude over 1")
	assert.False(t, inBounds([]float64{0.5, -10, 1}, 1), "negative tau")
	assert.False(t, inBounds([]float64{0.6, 0.5, 10, 1, 0.1}, 2), "amplitudes summing over 1")
	assert.False(t, inBounds([]float64{0, 10, 1}, 1), "zero amplitude")

	time := grid(5, 1)
	data := []float64{1, 0.9, 0.8, 0.7, 0.6}
	obj := residual(continuousModel, 1, time, data)
	assert.Equal(t, boundsPenalty, obj([]float64{1.2, 5, 5}))
	assert.Less(t, obj([]float64{0.5, 5, 5}), boundsPenalty)
	assert.False(t, math.IsNaN(obj([]float64{0.5, 5, 5})))
}
