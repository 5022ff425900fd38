package hbond

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

//Returned by the objective function outside the allowed parameter
//region, steering the minimizer back without a constrained solver.
const boundsPenalty = 1e10

//continuousModel is a 2-exponential decay with parameters
//[A1, tau1, tau2]; the second amplitude is 1-A1.
func continuousModel(p []float64, t float64) float64 {
	return p[0]*math.Exp(-t/p[1]) + (1-p[0])*math.Exp(-t/p[2])
}

//intermittentModel is a 3-exponential decay with parameters
//[A1, A2, tau1, tau2, tau3]; the third amplitude is 1-A1-A2.
func intermittentModel(p []float64, t float64) float64 {
	return p[0]*math.Exp(-t/p[2]) + p[1]*math.Exp(-t/p[3]) + (1-p[0]-p[1])*math.Exp(-t/p[4])
}

//inBounds reports whether every amplitude, the implied last one
//included, lies in (0,1), and every time constant is positive. The
//first namps elements of p are amplitudes, the rest time constants.
func inBounds(p []float64, namps int) bool {
	sum := 0.0
	for _, a := range p[:namps] {
		if a <= 0 || a >= 1 {
			return false
		}
		sum += a
	}
	if sum >= 1 {
		return false
	}
	for _, tau := range p[namps:] {
		if tau <= 0 {
			return false
		}
	}
	return true
}

//residual builds the objective: the sum of squared residuals of the
//model against the data, or a flat penalty outside the bounds.
func residual(model func([]float64, float64) float64, namps int, time, data []float64) func([]float64) float64 {
	return func(p []float64) float64 {
		if !inBounds(p, namps) {
			return boundsPenalty
		}
		var ssr float64
		for i, t := range time {
			r := model(p, t) - data[i]
			ssr += r * r
		}
		return ssr
	}
}

//integratedTau is the amplitude-weighted sum of the time constants,
//the implied last amplitude included.
func integratedTau(p []float64, namps int) float64 {
	taus := p[namps:]
	var tau, asum float64
	for i := 0; i < namps; i++ {
		tau += p[i] * taus[i]
		asum += p[i]
	}
	return tau + (1-asum)*taus[namps]
}

//Solve fits the decay curve computed by Run to a sum of exponential
//terms: 2 under the continuous definition, 3 under the intermittent
//one. An optional initial guess may be given ([A1, tau1, tau2], or
//[A1, A2, tau1, tau2, tau3]); otherwise a standard one is built from
//the sample time. Failing to converge is a warning, not an error: the
//best parameters found are still stored in the Solution, with
//Converged set to false and no Estimate.
func (A *AutoCorrel) Solve(guess ...[]float64) error {
	if A.sol == nil {
		return CError{ErrNoResults, []string{"Solve"}}
	}
	var model func([]float64, float64) float64
	var namps int
	var x0 []float64
	T := A.o.sampleTime
	if A.mode == Continuous {
		model, namps = continuousModel, 1
		x0 = []float64{0.5, 10 * T, T}
	} else {
		model, namps = intermittentModel, 2
		x0 = []float64{0.33, 0.33, 10 * T, T, 0.1 * T}
	}
	if len(guess) > 0 && guess[0] != nil {
		if len(guess[0]) != len(x0) {
			return cerrf("Solve", "an initial guess for the %s model needs %d parameters, got %d", A.mode, len(x0), len(guess[0]))
		}
		x0 = guess[0]
	}
	obj := residual(model, namps, A.sol.Time, A.sol.Results)
	prob := optimize.Problem{Func: obj}
	set := &optimize.Settings{
		Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Iterations: 50},
		MajorIterations: 10000,
	}
	res, err := optimize.Minimize(prob, x0, set, &optimize.NelderMead{})
	if res == nil {
		return errDecorate(err, "Solve")
	}
	conv := err == nil
	msg := res.Status.String()
	if err != nil {
		msg = err.Error()
	}
	switch res.Status {
	case optimize.IterationLimit, optimize.RuntimeLimit, optimize.FunctionEvaluationLimit, optimize.Failure, optimize.NotTerminated:
		conv = false
	}
	best, bestF := res.X, res.F
	if conv && inBounds(best, namps) {
		//polish with a gradient method (finite differences, the
		//objective has no analytic gradient), kept only if it helps.
		polProb := optimize.Problem{Func: obj, Grad: func(grad, x []float64) {
			fd.Gradient(grad, obj, x, nil)
		}}
		pol, perr := optimize.Minimize(polProb, best, nil, &optimize.BFGS{})
		if perr == nil && pol != nil && pol.F < bestF && inBounds(pol.X, namps) {
			best = pol.X
		}
	}
	sol := A.sol
	sol.Fit = best
	sol.Converged = conv
	sol.Message = msg
	sol.Estimate = nil
	sol.Tau = 0
	sol.RSq = 0
	if !conv {
		A.warn(fmt.Sprintf("the %s fit did not converge (%s); parameters kept as the best found", A.mode, msg))
		return nil
	}
	est := make([]float64, len(sol.Time))
	for i, t := range sol.Time {
		est[i] = model(best, t)
	}
	sol.Estimate = est
	sol.Tau = integratedTau(best, namps)
	sol.RSq = stat.RSquaredFrom(est, sol.Results, nil)
	return nil
}
