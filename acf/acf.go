//Package acf computes time correlation functions of scalar series by
//FFT, the O(N log N) counterpart of the textbook double loop. The
//series are centered and the correlations normalized by the product
//of the population standard deviations, so the lag-0 value of an
//autocorrelation is exactly 1.
package acf

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Auto returns the normalized autocorrelation of the series, for lags
//0 to len(series)-1. It costs one FFT less than Cross with the series
//given twice, but returns the same numbers.
func Auto(series []float64) ([]float64, error) {
	n := len(series)
	if n < 2 {
		return nil, fmt.Errorf("goHBond/acf: a series of %d points has no correlations", n)
	}
	mean := stat.Mean(series, nil)
	std := stat.PopStdDev(series, nil)
	if std == 0 {
		return nil, fmt.Errorf("goHBond/acf: the series is constant")
	}
	//zero-padding to twice the length keeps the circular correlation
	//from wrapping into the lags we report
	pad := make([]complex128, 2*n)
	for i, v := range series {
		pad[i] = complex(v-mean, 0)
	}
	f := fourier.NewCmplxFFT(len(pad))
	f.Coefficients(pad, pad)
	for i, v := range pad {
		pad[i] = v * cmplx.Conj(v)
	}
	f.Sequence(pad, pad)
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = real(pad[i])
	}
	//1/len(pad) undoes the unnormalized inverse transform, the rest
	//is the correlation normalization
	floats.Scale(1/(float64(len(pad))*float64(n)*std*std), ret)
	return ret, nil
}

//Cross returns the normalized cross-correlation of a and b, which must
//have the same length, for lags 0 to len(a)-1. A positive lag k pairs
//a at time t+k with b at time t.
func Cross(a, b []float64) ([]float64, error) {
	n := len(a)
	if n != len(b) {
		return nil, fmt.Errorf("goHBond/acf: mismatched series of %d and %d points", len(a), len(b))
	}
	if n < 2 {
		return nil, fmt.Errorf("goHBond/acf: a series of %d points has no correlations", n)
	}
	amean := stat.Mean(a, nil)
	bmean := stat.Mean(b, nil)
	astd := stat.PopStdDev(a, nil)
	bstd := stat.PopStdDev(b, nil)
	if astd == 0 || bstd == 0 {
		return nil, fmt.Errorf("goHBond/acf: at least one of the series is constant")
	}
	apad := make([]complex128, 2*n)
	bpad := make([]complex128, 2*n)
	for i := range a {
		apad[i] = complex(a[i]-amean, 0)
		bpad[i] = complex(b[i]-bmean, 0)
	}
	f := fourier.NewCmplxFFT(len(apad))
	f.Coefficients(apad, apad)
	f.Coefficients(bpad, bpad)
	for i, v := range bpad {
		apad[i] *= cmplx.Conj(v)
	}
	f.Sequence(apad, apad)
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = real(apad[i])
	}
	floats.Scale(1/(float64(len(apad))*float64(n)*astd*bstd), ret)
	return ret, nil
}
