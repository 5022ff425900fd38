package hbplot

import (
	"fmt"
	"math"
	"os"
	"testing"

	hbond "github.com/rmera/gohbond"
)

func fakeSolution(fitted bool) *hbond.Solution {
	n := 40
	sol := &hbond.Solution{Mode: hbond.Continuous}
	sol.Time = make([]float64, n)
	sol.Results = make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) * 2.0
		sol.Time[i] = t
		sol.Results[i] = 0.6*math.Exp(-t/15) + 0.4*math.Exp(-t/60)
	}
	if fitted {
		sol.Fit = []float64{0.6, 15, 60}
		sol.Estimate = make([]float64, n)
		copy(sol.Estimate, sol.Results)
		sol.Tau = 0.6*15 + 0.4*60
		sol.RSq = 1.0
		sol.Converged = true
	}
	return sol
}

func TestDecay(Te *testing.T) {
	err := os.MkdirAll("../test", 0755)
	if err != nil {
		Te.Fatal(err)
	}
	for _, c := range []struct {
		sol  *hbond.Solution
		file string
	}{
		{fakeSolution(true), "../test/decay_fit.png"},
		{fakeSolution(false), "../test/decay_raw.png"},
	} {
		if err := Decay(c.sol, "continuous decay", c.file); err != nil {
			Te.Fatal(err)
		}
		info, err := os.Stat(c.file)
		if err != nil {
			Te.Fatal(err)
		}
		if info.Size() == 0 {
			Te.Errorf("%s came out empty", c.file)
		}
		fmt.Println("wrote", c.file, info.Size(), "bytes")
	}
	if err := Decay(nil, "nothing", "../test/never.png"); err == nil {
		Te.Error("plotted a nil solution")
	}
}

func TestSeries(Te *testing.T) {
	err := os.MkdirAll("../test", 0755)
	if err != nil {
		Te.Fatal(err)
	}
	counts := make([]float64, 100)
	for i := range counts {
		counts[i] = 50 + 10*math.Sin(float64(i)/7)
	}
	file := "../test/counts.png"
	if err := Series(nil, counts, "hydrogen bonds", "bond count", file); err != nil {
		Te.Fatal(err)
	}
	info, err := os.Stat(file)
	if err != nil {
		Te.Fatal(err)
	}
	if info.Size() == 0 {
		Te.Errorf("%s came out empty", file)
	}
	if err := Series([]float64{1}, counts, "y", "t", "../test/never.png"); err == nil {
		Te.Error("plotted a series against a mismatched time grid")
	}
}
