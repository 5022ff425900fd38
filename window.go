package hbond

import "fmt"

//windows is the sampling plan of an analysis: one (start, stop) pair of
//frame indexes per run, plus the stride shared by all runs and the
//nominal sample count of an untruncated run.
type windows struct {
	starts  []int
	stops   []int
	skip    int
	samples int
}

//planWindows lays nruns sampling windows of sampleTime ps over a
//trajectory of frames frames with a time step of dt ps, each window
//sampled nsamples times. Degenerate requests degrade to a warned
//fallback instead of failing, except for a sample time shorter than
//one frame, which cannot produce any samples at all.
func planWindows(frames int, dt, sampleTime float64, nruns, nsamples int) (*windows, []string, error) {
	var warns []string
	reqFrames := int(sampleTime / dt)
	if reqFrames < 1 {
		return nil, nil, cerrf("planWindows", "sample time %v ps is shorter than the trajectory time step %v ps", sampleTime, dt)
	}
	if reqFrames > frames {
		warns = append(warns, fmt.Sprintf("sample time %v ps needs %d frames but the trajectory has only %d; windows will be truncated", sampleTime, reqFrames, frames))
	}
	if nruns > frames {
		warns = append(warns, fmt.Sprintf("%d runs requested on a %d-frame trajectory; clamping to one run per frame", nruns, frames))
		nruns = frames
	}
	skip := reqFrames / nsamples
	if skip == 0 {
		warns = append(warns, fmt.Sprintf("%d samples requested on %d-frame windows; sampling every frame instead (%d samples)", nsamples, reqFrames, reqFrames))
		skip = 1
	}
	w := &windows{
		starts: make([]int, nruns),
		stops:  make([]int, nruns),
		skip:   skip,
	}
	spacing := frames / nruns
	for i := 0; i < nruns; i++ {
		w.starts[i] = i * spacing
		w.stops[i] = w.starts[i] + reqFrames
		if w.stops[i] > frames {
			w.stops[i] = frames
		}
	}
	w.samples = (reqFrames + skip - 1) / skip
	return w, warns, nil
}

//steps returns how many frames window i gets sampled on.
func (w *windows) steps(i int) int {
	return (w.stops[i] - w.starts[i] + w.skip - 1) / w.skip
}
