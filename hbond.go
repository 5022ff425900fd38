/*
 * hbond.go, part of gohbond.
 *
 * Copyright 2023 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package hbond

import (
	"fmt"
	"log"
	"strings"

	v3 "github.com/rmera/gohbond/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//BondLifetime selects what "surviving" means for a tracked hydrogen
//bond.
type BondLifetime int

const (
	//Continuous drops a bond the first time its geometry fails: an
	//interrupted bond never returns.
	Continuous BondLifetime = iota
	//Intermittent lets a bond break and reform freely, within the
	//forgiveness time, if one is set.
	Intermittent
)

func (B BondLifetime) String() string {
	switch B {
	case Continuous:
		return "continuous"
	case Intermittent:
		return "intermittent"
	}
	return "unknown"
}

//ParseBondLifetime returns the BondLifetime named by s
//(case insensitive).
func ParseBondLifetime(s string) (BondLifetime, error) {
	switch strings.ToLower(s) {
	case "continuous":
		return Continuous, nil
	case "intermittent":
		return Intermittent, nil
	}
	return 0, cerrf("ParseBondLifetime", "unknown hydrogen bond lifetime definition %q (want \"continuous\" or \"intermittent\")", s)
}

//AutoCorrel computes the population autocorrelation of the hydrogen
//bonds between a set of donor-hydrogen pairs and a set of acceptors
//along a trajectory. It is not safe for concurrent use; distinct
//instances over distinct trajectories are.
type AutoCorrel struct {
	traj SeekTraj
	mode BondLifetime
	h    []int //hydrogens. h and d are aligned pairwise.
	d    []int //donors
	a    []int //acceptors
	o    *Options

	angleRad float64 //o.angleCrit, in radians
	dt       float64
	wins     *windows

	sol      *Solution
	warnings []string
	nplan    int //warnings up to here came from planning and survive re-runs

	//scratch, reused across frames so the scan doesn't allocate
	coords *v3.Matrix
	boxbuf []float64
	box    []float64 //what check/seed actually use. nil when pbc is off.
	selH   *v3.Matrix
	selD   *v3.Matrix
	selA   *v3.Matrix
	dm     *mat.Dense
	canH   *v3.Matrix
	canD   *v3.Matrix
	canA   *v3.Matrix
	cap    int
	dists  []float64
	angs   []float64
	alive  []bool
	pop    *population
}

//New prepares a hydrogen bond autocorrelation analysis over traj.
//hydrogens and donors are aligned pairwise (the ith hydrogen is
//covalently bound to the ith donor) and acceptors is free-standing;
//all three hold atom indexes into the trajectory frames. Everything
//is validated here, so a successfully built AutoCorrel will only fail
//later on trajectory reading.
func New(traj Traj, hydrogens, donors, acceptors []int, lifetime BondLifetime, options ...*Options) (*AutoCorrel, error) {
	if traj == nil {
		return nil, CError{ErrNilTraj, []string{"New"}}
	}
	st, ok := traj.(SeekTraj)
	if !ok {
		return nil, CError{ErrNotSeekable, []string{"New"}}
	}
	if !traj.Readable() {
		return nil, CError{ErrTrajUnIni, []string{"New"}}
	}
	if lifetime != Continuous && lifetime != Intermittent {
		return nil, CError{ErrUnknownMode, []string{"New"}}
	}
	o := DefaultOptions()
	if len(options) > 0 && options[0] != nil {
		o = options[0]
	}
	if o.distCrit <= 0 || o.angleCrit <= 0 {
		return nil, cerrf("New", "the geometric criteria must be positive: got %v A and %v degrees", o.distCrit, o.angleCrit)
	}
	if o.sampleTime <= 0 {
		return nil, cerrf("New", "the sample time must be positive: got %v ps", o.sampleTime)
	}
	if o.nRuns <= 0 || o.nSamples <= 0 {
		return nil, cerrf("New", "runs and samples per run must be positive: got %d and %d", o.nRuns, o.nSamples)
	}
	if o.timeCut < 0 {
		return nil, cerrf("New", "the forgiveness time can't be negative: got %v ps", o.timeCut)
	}
	if len(hydrogens) == 0 || len(donors) == 0 {
		return nil, cerrf("New", "empty hydrogen or donor selection")
	}
	if len(hydrogens) != len(donors) {
		return nil, cerrf("New", "hydrogens and donors come in aligned pairs, but got %d hydrogens and %d donors", len(hydrogens), len(donors))
	}
	if len(acceptors) == 0 {
		return nil, cerrf("New", "empty acceptor selection")
	}
	natoms := traj.Len()
	for _, sel := range [][]int{hydrogens, donors, acceptors} {
		for _, v := range sel {
			if v < 0 || v >= natoms {
				return nil, cerrf("New", "atom index %d out of range for a %d-atom trajectory", v, natoms)
			}
		}
	}
	if len(o.exclH) != len(o.exclA) {
		return nil, cerrf("New", "excluded pairs must be aligned: got %d hydrogen and %d acceptor positions", len(o.exclH), len(o.exclA))
	}
	for i := range o.exclH {
		if o.exclH[i] < 0 || o.exclH[i] >= len(hydrogens) || o.exclA[i] < 0 || o.exclA[i] >= len(acceptors) {
			return nil, cerrf("New", "excluded pair (%d, %d) out of range for the %dx%d selections", o.exclH[i], o.exclA[i], len(hydrogens), len(acceptors))
		}
	}
	dt := st.TimeStep()
	if dt <= 0 {
		return nil, cerrf("New", "the trajectory reports a non-positive time step (%v ps)", dt)
	}
	frames := st.Frames()
	if frames < 1 {
		return nil, cerrf("New", "the trajectory reports no frames")
	}
	wins, warns, err := planWindows(frames, dt, o.sampleTime, o.nRuns, o.nSamples)
	if err != nil {
		return nil, errDecorate(err, "New")
	}
	A := &AutoCorrel{
		traj:     st,
		mode:     lifetime,
		h:        hydrogens,
		d:        donors,
		a:        acceptors,
		o:        o,
		angleRad: Deg2Rad(o.angleCrit),
		dt:       dt,
		wins:     wins,
		coords:   v3.Zeros(natoms),
		selH:     v3.Zeros(len(hydrogens)),
		selD:     v3.Zeros(len(donors)),
		selA:     v3.Zeros(len(acceptors)),
		dm:       mat.NewDense(len(hydrogens), len(acceptors), nil),
		pop:      new(population),
	}
	if o.pbc {
		A.boxbuf = make([]float64, 9)
	}
	for _, w := range warns {
		A.warn(w)
	}
	if o.timeCut > 0 && lifetime == Continuous {
		A.warn(fmt.Sprintf("a forgiveness time (%v ps) makes no sense under the continuous definition; ignored", o.timeCut))
	}
	A.nplan = len(A.warnings)
	return A, nil
}

//Run performs the analysis: it scans every sampling window, tracking
//the survival of the hydrogen bonds found at each window's start, and
//averages the windows into the decay curve available from Solution.
//A second call returns immediately, unless forced with Run(true).
func (A *AutoCorrel) Run(force ...bool) error {
	if A.sol != nil && (len(force) == 0 || !force[0]) {
		return nil
	}
	A.sol = nil
	A.warnings = A.warnings[:A.nplan]
	master := make([]float64, A.wins.samples)
	hits := make([]int, A.wins.samples)
	total := len(A.wins.starts)
	for w := 0; w < total; w++ {
		if A.o.progress != nil {
			A.o.progress(w+1, total)
		}
		curve, err := A.window(w)
		if err != nil {
			return errDecorate(err, "Run")
		}
		if curve == nil {
			A.warn(fmt.Sprintf("no hydrogen bonds at the start of window %d (frame %d); window skipped", w, A.wins.starts[w]))
			continue
		}
		//windows cut short by bond extinction or trajectory end
		//contribute to the prefix they did sample.
		floats.Add(master[:len(curve)], curve)
		for i := range curve {
			hits[i]++
		}
	}
	n := len(hits)
	for i, h := range hits {
		if h == 0 {
			n = i
			break
		}
	}
	if n == 0 {
		return CError{ErrAllWinsEmpty, []string{"Run"}}
	}
	curve := master[:n]
	for i := range curve {
		curve[i] /= float64(hits[i])
	}
	time := make([]float64, n)
	for i := range time {
		time[i] = float64(i) * A.dt * float64(A.wins.skip)
	}
	A.sol = &Solution{Mode: A.mode, Time: time, Results: curve}
	return nil
}

//window scans the wth sampling window and returns its normalized
//survival curve. The curve is shorter than the window's sample count if
//the tracked population went extinct before the window's end, and nil
//if nothing was bonded at the window's start.
func (A *AutoCorrel) window(w int) ([]float64, error) {
	if err := A.read(A.wins.starts[w]); err != nil {
		return nil, errDecorate(err, fmt.Sprintf("window %d", w))
	}
	A.seed()
	n0 := A.pop.len()
	if n0 == 0 {
		return nil, nil
	}
	cut := A.o.timeCut
	if A.mode == Intermittent && cut > 0 {
		A.pop.startClocks()
	}
	steps := A.wins.steps(w)
	curve := make([]float64, 1, steps)
	curve[0] = 1 //the seed population is, by construction, fully bonded
	elapsed := A.dt * float64(A.wins.skip)
	for s := 1; s < steps; s++ {
		if err := A.read(A.wins.starts[w] + s*A.wins.skip); err != nil {
			return nil, errDecorate(err, fmt.Sprintf("window %d", w))
		}
		survived := A.check()
		curve = append(curve, float64(survived)/float64(n0))
		n := A.pop.len()
		switch {
		case A.mode == Continuous:
			A.pop.compact(A.alive[:n])
		case cut > 0:
			A.pop.tick(A.alive[:n], elapsed, cut)
		}
		if A.pop.len() == 0 {
			break
		}
	}
	return curve, nil
}

//read positions the trajectory on the ith frame, reads it, and gathers
//the three selections from it.
func (A *AutoCorrel) read(i int) error {
	if err := A.traj.Seek(i); err != nil {
		return err
	}
	return A.next()
}

//next reads the upcoming frame into the analyzer's scratch and gathers
//the three selections from it.
func (A *AutoCorrel) next() error {
	var err error
	if A.boxbuf != nil {
		err = A.traj.Next(A.coords, A.boxbuf)
		A.box = A.boxbuf
	} else {
		err = A.traj.Next(A.coords)
		A.box = nil
	}
	if err != nil {
		return err
	}
	A.selH.SomeVecs(A.coords, A.h)
	A.selD.SomeVecs(A.coords, A.d)
	A.selA.SomeVecs(A.coords, A.a)
	return nil
}

//seed fills the population with every donor-hydrogen/acceptor pair
//bonded in the frame just read: H...A distance under the cutoff, with
//the excluded pairs pushed out of range first, then the D-H...A angle
//over its own cutoff.
func (A *AutoCorrel) seed() {
	A.pop.reset()
	DistMatrix(A.dm, A.selH, A.selA, A.box)
	for i := range A.o.exclH {
		A.dm.Set(A.o.exclH[i], A.o.exclA[i], A.o.distCrit+1)
	}
	for i := 0; i < len(A.h); i++ {
		for j := 0; j < len(A.a); j++ {
			if A.dm.At(i, j) < A.o.distCrit {
				A.pop.add(i, j)
			}
		}
	}
	if A.pop.len() == 0 {
		return
	}
	A.grow(A.pop.len())
	A.check()
	A.pop.compact(A.alive[:A.pop.len()])
}

//check evaluates the geometric criteria for every tracked pair on the
//frame just read, leaving the per-pair verdicts in A.alive and
//returning how many passed.
func (A *AutoCorrel) check() int {
	n := A.pop.len()
	h := A.canH.View(0, 0, n, 3)
	d := A.canD.View(0, 0, n, 3)
	a := A.canA.View(0, 0, n, 3)
	h.SomeVecs(A.selH, A.pop.h)
	d.SomeVecs(A.selD, A.pop.h) //donors are aligned with their hydrogens
	a.SomeVecs(A.selA, A.pop.a)
	PairDistances(A.dists[:n], h, a, A.box)
	PairAngles(A.angs[:n], d, h, a, A.box)
	survived := 0
	for i := 0; i < n; i++ {
		A.alive[i] = A.dists[i] < A.o.distCrit && A.angs[i] > A.angleRad
		if A.alive[i] {
			survived++
		}
	}
	return survived
}

//grow makes sure the per-candidate scratch can hold n entries.
func (A *AutoCorrel) grow(n int) {
	if A.cap >= n {
		return
	}
	A.canH = v3.Zeros(n)
	A.canD = v3.Zeros(n)
	A.canA = v3.Zeros(n)
	A.dists = make([]float64, n)
	A.angs = make([]float64, n)
	A.alive = make([]bool, n)
	A.cap = n
}

//CountSeries returns the number of hydrogen bonds present at each frame
//of the whole trajectory, under the same geometric criteria and
//exclusions as the autocorrelation itself. A float slice, so the result
//can go straight into the acf package.
func (A *AutoCorrel) CountSeries() ([]float64, error) {
	if err := A.traj.Seek(0); err != nil {
		return nil, errDecorate(err, "CountSeries")
	}
	counts := make([]float64, 0, A.traj.Frames())
	for {
		err := A.next()
		if err != nil {
			if _, ok := err.(LastFrameError); ok {
				break
			}
			return nil, errDecorate(err, "CountSeries")
		}
		A.seed()
		counts = append(counts, float64(A.pop.len()))
	}
	return counts, nil
}

//Solution returns the results of the analysis, or nil if Run hasn't
//succeeded yet.
func (A *AutoCorrel) Solution() *Solution {
	return A.sol
}

//Warnings returns everything the analysis complained about without
//dying: degraded sampling plans, skipped windows, fits that didn't
//converge.
func (A *AutoCorrel) Warnings() []string {
	return A.warnings
}

func (A *AutoCorrel) String() string {
	return fmt.Sprintf("%s hydrogen bond autocorrelation: %d donor-H pairs x %d acceptors, %d windows of %v ps, %d samples each",
		A.mode, len(A.h), len(A.a), len(A.wins.starts), A.o.sampleTime, A.wins.samples)
}

//warn records w on the analyzer and echoes it through the log, so
//unattended runs leave a trace even if nobody reads Warnings.
func (A *AutoCorrel) warn(w string) {
	A.warnings = append(A.warnings, w)
	log.Printf("goHBond: %s", w)
}
