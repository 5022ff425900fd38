package hbond

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const lzwLitwidth int = 8

//Solution holds the results of an analysis: the averaged decay curve
//produced by Run, plus, after Solve, the exponential fit over it.
type Solution struct {
	Mode      BondLifetime
	Time      []float64 //ps
	Results   []float64 //the decay curve. Results[0] is always 1.
	Fit       []float64 //fitted parameters: [A1, tau1, tau2] or [A1, A2, tau1, tau2, tau3]
	Estimate  []float64 //the fitted model over Time. nil if the fit didn't converge.
	Tau       float64   //integrated hydrogen bond lifetime, in ps
	RSq       float64
	Converged bool
	Message   string //the minimizer's last word
}

func (S *Solution) String() string {
	if S == nil || len(S.Time) == 0 {
		return "empty solution"
	}
	b := new(strings.Builder)
	fmt.Fprintf(b, "%s hydrogen bond autocorrelation, %d points, 0 to %.4g ps", S.Mode, len(S.Time), S.Time[len(S.Time)-1])
	if S.Fit == nil {
		return b.String()
	}
	amps := len(S.Fit) / 2
	taus := S.Fit[amps:]
	last := 1.0
	fmt.Fprintf(b, "\nfit:")
	for i := 0; i < amps; i++ {
		fmt.Fprintf(b, " A%d=%.4f tau%d=%.4g", i+1, S.Fit[i], i+1, taus[i])
		last -= S.Fit[i]
	}
	fmt.Fprintf(b, " A%d=%.4f tau%d=%.4g", amps+1, last, amps+1, taus[amps])
	if S.Converged {
		fmt.Fprintf(b, "\ntau = %.4g ps, R^2 = %.4f (%s)", S.Tau, S.RSq, S.Message)
	} else {
		fmt.Fprintf(b, "\nnot converged (%s)", S.Message)
	}
	return b.String()
}

//Save writes the decay curve computed by Run to name, one "time value"
//line per point, in full float64 precision. It is an error to call it
//before Run has produced results.
func (A *AutoCorrel) Save(name string) error {
	if A.sol == nil {
		return CError{ErrNoResults, []string{"Save"}}
	}
	if err := A.sol.Save(name); err != nil {
		return errDecorate(err, "Save")
	}
	return nil
}

//Save writes the decay curve to name. The last letter of the name picks
//the compression, as in the trajectory formats of this family:
//'z' gzip, 's' zstd, 'l' lzw, 'r' flate, anything else (the plain
//.dat) uncompressed.
func (S *Solution) Save(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return errDecorate(err, "Solution.Save")
	}
	defer f.Close()
	h, err := solWriter(f, name)
	if err != nil {
		return cerrf("Solution.Save", "can't set up compression for %s: %v", name, err)
	}
	w := bufio.NewWriter(h)
	fmt.Fprintf(w, "# goHBond %s decay\n", S.Mode)
	for i, t := range S.Time {
		fmt.Fprintf(w, "%s %s\n", strconv.FormatFloat(t, 'g', -1, 64), strconv.FormatFloat(S.Results[i], 'g', -1, 64))
	}
	if err := w.Flush(); err != nil {
		return errDecorate(err, "Solution.Save")
	}
	if err := h.Close(); err != nil {
		return errDecorate(err, "Solution.Save")
	}
	return nil
}

//ReadSolution loads a decay curve written by Save, picking the
//compression from the name the way Save does. Only the curve itself is
//persisted, so the fit fields of the returned Solution are empty.
func ReadSolution(name string) (*Solution, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errDecorate(err, "ReadSolution")
	}
	defer f.Close()
	h, err := solReader(f, name)
	if err != nil {
		return nil, cerrf("ReadSolution", "can't set up decompression for %s: %v", name, err)
	}
	defer h.Close()
	S := new(Solution)
	scan := bufio.NewScanner(h)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			for _, v := range strings.Fields(line) {
				if m, err := ParseBondLifetime(v); err == nil {
					S.Mode = m
					break
				}
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, cerrf("ReadSolution", "malformed line in %s: %q", name, line)
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, cerrf("ReadSolution", "malformed time in %s: %q", name, line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, cerrf("ReadSolution", "malformed value in %s: %q", name, line)
		}
		S.Time = append(S.Time, t)
		S.Results = append(S.Results, v)
	}
	if err := scan.Err(); err != nil {
		return nil, errDecorate(err, "ReadSolution")
	}
	if len(S.Time) == 0 {
		return nil, cerrf("ReadSolution", "no data points in %s", name)
	}
	return S, nil
}

func solWriter(f *os.File, name string) (io.WriteCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		return gzip.NewWriterLevel(f, gzip.BestCompression)
	case 's':
		return zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case 'l':
		return lzw.NewWriter(f, lzw.MSB, lzwLitwidth), nil
	case 'r':
		return flate.NewWriter(f, flate.BestCompression)
	}
	return nopCloser{f}, nil
}

func solReader(f *os.File, name string) (io.ReadCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		return gzip.NewReader(f)
	case 's':
		r, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return zstdql{r.Close, r}, nil
	case 'l':
		return lzw.NewReader(f, lzw.MSB, lzwLitwidth), nil
	case 'r':
		return flate.NewReader(f), nil
	}
	return io.NopCloser(f), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

//zstd.Decoder's Close returns nothing, so it misses io.ReadCloser by
//a signature.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.closeql()
	return nil
}
