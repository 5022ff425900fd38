package hbond

//Options contains the tunable parameters of a hydrogen bond
//autocorrelation analysis. The zero value is not useful; start from
//DefaultOptions.
type Options struct {
	distCrit   float64 //H...A distance cutoff, in A
	angleCrit  float64 //D-H...A angle cutoff, in degrees
	sampleTime float64 //length of each sampling window, in ps
	timeCut    float64 //forgiveness time for the intermittent definition, in ps. 0 disables it.
	nRuns      int     //sampling windows laid over the trajectory
	nSamples   int     //samples taken per window
	pbc        bool
	exclH      []int //positions in the hydrogens selection of the excluded pairs
	exclA      []int //positions in the acceptors selection of the excluded pairs
	progress   func(current, total int)
}

//DefaultOptions returns reasonable options for hydrogen bond analysis
//in atomistic trajectories: the usual 3.0 A / 130 degree geometric
//criteria, one 100 ps window sampled 50 times, minimum-image distances.
func DefaultOptions() *Options {
	r := new(Options)
	r.distCrit = 3.0
	r.angleCrit = 130.0
	r.sampleTime = 100
	r.nRuns = 1
	r.nSamples = 50
	r.pbc = true
	return r
}

//Returns the H...A distance cutoff, in A,
//and sets it to a new value, if given.
func (O *Options) DistCrit(d ...float64) float64 {
	if len(d) > 0 && d[0] > 0 {
		O.distCrit = d[0]
	}
	return O.distCrit
}

//Returns the D-H...A angle cutoff, in degrees,
//and sets it to a new value, if given.
func (O *Options) AngleCrit(a ...float64) float64 {
	if len(a) > 0 && a[0] > 0 {
		O.angleCrit = a[0]
	}
	return O.angleCrit
}

//Returns the length of each sampling window, in ps,
//and sets it to a new value, if given.
func (O *Options) SampleTime(t ...float64) float64 {
	if len(t) > 0 && t[0] > 0 {
		O.sampleTime = t[0]
	}
	return O.sampleTime
}

//Returns the forgiveness time for the intermittent definition, in ps,
//and sets it to a new value, if given. While the forgiveness time is
//active, a bond has to stay broken for longer than it to be dropped
//from the tracked set. 0 (the default) disables it.
func (O *Options) TimeCut(t ...float64) float64 {
	if len(t) > 0 && t[0] >= 0 {
		O.timeCut = t[0]
	}
	return O.timeCut
}

//Returns the number of sampling windows laid over the trajectory,
//and sets it to a new value, if given.
func (O *Options) NRuns(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.nRuns = n[0]
	}
	return O.nRuns
}

//Returns the number of samples taken per window,
//and sets it to a new value, if given.
func (O *Options) NSamples(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.nSamples = n[0]
	}
	return O.nSamples
}

//Returns whether distances and angles honor the periodic boundary
//conditions of the frames, and sets it, if given.
func (O *Options) PBC(b ...bool) bool {
	if len(b) > 0 {
		O.pbc = b[0]
	}
	return O.pbc
}

//Exclusions sets, in one call, the aligned positions of the pairs that
//can never seed a bond: h holds positions in the hydrogens selection,
//a the matching positions in the acceptors selection.
func (O *Options) Exclusions(h, a []int) {
	O.exclH = h
	O.exclA = a
}

//Returns the positions, in the hydrogens selection, of the pairs that
//can never seed a bond, and sets them, if given. Must be aligned with
//ExclAcceptors.
func (O *Options) ExclHydrogens(h ...[]int) []int {
	if len(h) > 0 {
		O.exclH = h[0]
	}
	return O.exclH
}

//Returns the positions, in the acceptors selection, of the pairs that
//can never seed a bond, and sets them, if given. Must be aligned with
//ExclHydrogens.
func (O *Options) ExclAcceptors(a ...[]int) []int {
	if len(a) > 0 {
		O.exclA = a[0]
	}
	return O.exclA
}

//Returns the observer notified as (current run, total runs) while the
//analysis advances, and sets it, if given. nil (the default) keeps the
//analysis silent.
func (O *Options) Progress(f ...func(current, total int)) func(current, total int) {
	if len(f) > 0 {
		O.progress = f[0]
	}
	return O.progress
}
