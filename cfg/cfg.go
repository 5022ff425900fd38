//Package cfg runs whole hydrogen bond analyses from YAML configuration
//files, so the common cases don't need any Go written for them.
package cfg

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	hbond "github.com/rmera/gohbond"
	"github.com/rmera/gohbond/hbplot"
	"github.com/rmera/gohbond/traj/ctf"
	"github.com/rmera/gohbond/traj/dcd"
)

//Cfg mirrors the analysis options of the library, plus the input and
//output files. It can be read from a YAML file with New, or built by
//hand, in which case Check tells whether it is usable. The zero value
//of every optional field means "use the library's default".
type Cfg struct {
	//Traj is the trajectory file. The format is taken from the
	//extension: .dcd, or the .ctf compression family.
	Traj string `yaml:"traj"`

	//Mode selects what to track: "continuous" or "intermittent".
	Mode string `yaml:"mode"`

	//Hydrogens and Donors list, index-aligned, the atoms that can
	//donate a hydrogen bond. Acceptors lists the atoms that can
	//receive one. All indexes are 0-based positions in the trajectory.
	Hydrogens []int `yaml:"hydrogens"`
	Donors    []int `yaml:"donors"`
	Acceptors []int `yaml:"acceptors"`

	//DistCrit is the maximum H-acceptor distance, in A, and AngleCrit
	//the minimum donor-H-acceptor angle, in degrees, for a bond.
	DistCrit  float64 `yaml:"distCrit"`
	AngleCrit float64 `yaml:"angleCrit"`

	//SampleTime is the time, in ps, over which each decay is followed.
	SampleTime float64 `yaml:"sampleTime"`

	//TimeCut, in ps, forgives intermittent bond interruptions shorter
	//than itself. 0 means no interruption is ever too long.
	TimeCut float64 `yaml:"timeCut"`

	//Runs is the number of windows to average, Samples the number of
	//points in the reported decay.
	Runs    int `yaml:"runs"`
	Samples int `yaml:"samples"`

	//PBC controls the use of periodic boundary conditions. Absent
	//means true.
	PBC *bool `yaml:"pbc"`

	//ExclHydrogens and ExclAcceptors list, index-aligned, H-acceptor
	//pairs that are never counted as bonded.
	ExclHydrogens []int `yaml:"exclHydrogens"`
	ExclAcceptors []int `yaml:"exclAcceptors"`

	//Fit controls whether the decay gets a multiexponential fit.
	//Absent means true. Guess, if given, replaces the fit's default
	//starting parameters.
	Fit   *bool     `yaml:"fit"`
	Guess []float64 `yaml:"guess"`

	//Out, if given, is where the decay is saved, compressed according
	//to its extension. Plot, if given, is where a figure of the decay
	//goes, and Title its title. Series, if given, is where the
	//per-frame bond count goes, as a 2-column text file.
	Out    string `yaml:"out"`
	Plot   string `yaml:"plot"`
	Title  string `yaml:"title"`
	Series string `yaml:"series"`
}

//New opens and decodes the YAML configuration file in path, and checks
//it, so a Cfg it returns is ready to Run.
func New(path string) (*Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var c Cfg
	dec := yaml.NewDecoder(bufio.NewReader(f))
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.Check(); err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}
	return &c, nil
}

//Check returns an error if a field of the configuration doesn't meet
//the requirements. Deeper validation, like the selection indexes
//against the trajectory, happens when the analysis is set up.
func (c *Cfg) Check() error {
	if c.Traj == "" {
		return fmt.Errorf("a trajectory file must be given")
	}
	if _, err := hbond.ParseBondLifetime(c.Mode); err != nil {
		return err
	}
	if len(c.Hydrogens) == 0 || len(c.Hydrogens) != len(c.Donors) {
		return fmt.Errorf("hydrogens and donors must come in index-aligned, non-empty lists")
	}
	if len(c.Acceptors) == 0 {
		return fmt.Errorf("at least one acceptor is needed")
	}
	if c.DistCrit < 0 || c.AngleCrit < 0 || c.SampleTime < 0 || c.TimeCut < 0 {
		return fmt.Errorf("criteria and times cannot be negative")
	}
	if c.Runs < 0 || c.Samples < 0 {
		return fmt.Errorf("runs and samples cannot be negative")
	}
	if len(c.ExclHydrogens) != len(c.ExclAcceptors) {
		return fmt.Errorf("excluded hydrogens and acceptors must come in index-aligned lists")
	}
	return nil
}

//OpenTraj opens a trajectory file, picking the format from the
//extension: .dcd for CHARMM/NAMD binary trajectories, .ctf (or its
//compressed siblings .ctz, .ctl and .ctr) for goHBond's own.
func OpenTraj(path string) (hbond.SeekTraj, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcd":
		t, err := dcd.New(path)
		if err != nil {
			return nil, err
		}
		return t, nil
	case ".ctf", ".ctz", ".ctl", ".ctr":
		t, err := ctf.New(path)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("goHBond/cfg: can't tell the trajectory format of %s from its extension", path)
}

//options turns the configured values into analysis options, leaving
//the library's defaults alone wherever the configuration is silent.
func (c *Cfg) options(progress func(current, total int)) *hbond.Options {
	o := hbond.DefaultOptions()
	if c.DistCrit > 0 {
		o.DistCrit(c.DistCrit)
	}
	if c.AngleCrit > 0 {
		o.AngleCrit(c.AngleCrit)
	}
	if c.SampleTime > 0 {
		o.SampleTime(c.SampleTime)
	}
	if c.TimeCut > 0 {
		o.TimeCut(c.TimeCut)
	}
	if c.Runs > 0 {
		o.NRuns(c.Runs)
	}
	if c.Samples > 0 {
		o.NSamples(c.Samples)
	}
	if c.PBC != nil {
		o.PBC(*c.PBC)
	}
	if len(c.ExclHydrogens) > 0 {
		o.Exclusions(c.ExclHydrogens, c.ExclAcceptors)
	}
	if progress != nil {
		o.Progress(progress)
	}
	return o
}

//Run performs the whole configured analysis: track, fit unless told
//otherwise, and write whatever outputs have a file name. It returns
//the solution, which the output files, if any, also carry. A progress
//function, if given, is handed to the tracker.
func (c *Cfg) Run(progress ...func(current, total int)) (*hbond.Solution, error) {
	mode, err := hbond.ParseBondLifetime(c.Mode)
	if err != nil {
		return nil, err
	}
	var prog func(current, total int)
	if len(progress) > 0 {
		prog = progress[0]
	}
	traj, err := OpenTraj(c.Traj)
	if err != nil {
		return nil, err
	}
	if cl, ok := traj.(interface{ Close() }); ok {
		defer cl.Close()
	}
	A, err := hbond.New(traj, c.Hydrogens, c.Donors, c.Acceptors, mode, c.options(prog))
	if err != nil {
		return nil, err
	}
	if err := A.Run(); err != nil {
		return nil, err
	}
	if c.Fit == nil || *c.Fit {
		if len(c.Guess) > 0 {
			err = A.Solve(c.Guess)
		} else {
			err = A.Solve()
		}
		if err != nil {
			return nil, err
		}
	}
	sol := A.Solution()
	if c.Out != "" {
		if err := sol.Save(c.Out); err != nil {
			return nil, err
		}
	}
	if c.Plot != "" {
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("%s, %v", filepath.Base(c.Traj), sol.Mode)
		}
		if err := hbplot.Decay(sol, title, c.Plot); err != nil {
			return nil, err
		}
	}
	if c.Series != "" {
		if err := c.writeSeries(A, traj.TimeStep()); err != nil {
			return nil, err
		}
	}
	return sol, nil
}

//writeSeries saves the per-frame bond count as a 2-column text file,
//time in ps against bonds.
func (c *Cfg) writeSeries(A *hbond.AutoCorrel, dt float64) error {
	counts, err := A.CountSeries()
	if err != nil {
		return err
	}
	f, err := os.Create(c.Series)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# goHBond bond count, t (ps) vs bonds\n")
	for i, v := range counts {
		fmt.Fprintf(w, "%s %s\n", strconv.FormatFloat(float64(i)*dt, 'g', -1, 64), strconv.FormatFloat(v, 'g', -1, 64))
	}
	return w.Flush()
}
