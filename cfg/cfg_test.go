package cfg

import (
	"fmt"
	"os"
	"strings"
	"testing"

	hbond "github.com/rmera/gohbond"
	"github.com/rmera/gohbond/traj/ctf"
	v3 "github.com/rmera/gohbond/v3"
)

//writeTestTraj builds a 3-atom trajectory with one donor-H pair and
//one acceptor on the x axis. The acceptor sits within bonding range
//on the frames where bonded says so, and far away on the rest.
func writeTestTraj(name string, bonded func(frame int) bool, nframes int, dt float64) error {
	W, err := ctf.NewWriter(name, 3, dt)
	if err != nil {
		return err
	}
	coords := v3.Zeros(3)
	coords.Set(1, 0, 1.0) //the hydrogen, bonded to the donor at the origin
	for i := 0; i < nframes; i++ {
		if bonded(i) {
			coords.Set(2, 0, 3.0) //H-A distance 2.0, D-H-A angle 180
		} else {
			coords.Set(2, 0, 6.0)
		}
		if err := W.WNext(coords); err != nil {
			return err
		}
	}
	W.Close()
	return nil
}

func TestPipeline(Te *testing.T) {
	err := os.MkdirAll("../test", 0755)
	if err != nil {
		Te.Fatal(err)
	}
	//bonded for the first 5 frames, again between 20 and 29, broken
	//otherwise, so the windows below see a decay, a full survival and
	//an empty seed, respectively
	bonded := func(i int) bool { return i < 5 || (i >= 20 && i < 30) }
	err = writeTestTraj("../test/pipeline.ctf", bonded, 60, 1.0)
	if err != nil {
		Te.Fatal(err)
	}
	conf := `traj: ../test/pipeline.ctf
mode: continuous
hydrogens: [1]
donors: [0]
acceptors: [2]
sampleTime: 10
runs: 3
samples: 10
pbc: false
fit: false
out: ../test/pipeline.dat
plot: ../test/pipeline.png
series: ../test/pipeline_counts.dat
`
	err = os.WriteFile("../test/pipeline.yaml", []byte(conf), 0644)
	if err != nil {
		Te.Fatal(err)
	}
	c, err := New("../test/pipeline.yaml")
	if err != nil {
		Te.Fatal(err)
	}
	sol, err := c.Run()
	if err != nil {
		Te.Fatal(err)
	}
	if len(sol.Results) != 10 {
		Te.Fatalf("got a %d-point decay, wanted 10", len(sol.Results))
	}
	if sol.Results[0] != 1 {
		Te.Errorf("the decay starts at %v, not 1", sol.Results[0])
	}
	//the first window survives 5 steps and dies, the second survives
	//whole, the third seeds empty and is skipped
	if sol.Results[4] != 1 || sol.Results[5] != 0.5 {
		Te.Errorf("decay around the break: got %v and %v, want 1 and 0.5", sol.Results[4], sol.Results[5])
	}
	fmt.Println("pipeline decay:", sol.Results)
	saved, err := hbond.ReadSolution("../test/pipeline.dat")
	if err != nil {
		Te.Fatal(err)
	}
	if len(saved.Results) != len(sol.Results) || saved.Mode != sol.Mode {
		Te.Error("the saved decay doesn't match the returned one")
	}
	series, err := os.ReadFile("../test/pipeline_counts.dat")
	if err != nil {
		Te.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(series)), "\n")
	if len(lines) != 61 { //a comment plus one line per frame
		Te.Errorf("the bond count series has %d lines, want 61", len(lines))
	}
	if !strings.HasPrefix(lines[1], "0 1") || !strings.HasPrefix(lines[6], "5 0") {
		Te.Errorf("unexpected series lines %q and %q", lines[1], lines[6])
	}
	info, err := os.Stat("../test/pipeline.png")
	if err != nil {
		Te.Fatal(err)
	}
	if info.Size() == 0 {
		Te.Error("the plot came out empty")
	}
}

func TestCheck(Te *testing.T) {
	good := Cfg{Traj: "a.dcd", Mode: "intermittent", Hydrogens: []int{1}, Donors: []int{0}, Acceptors: []int{2}}
	if err := good.Check(); err != nil {
		Te.Error(err)
	}
	bad := []Cfg{
		{Mode: "continuous", Hydrogens: []int{1}, Donors: []int{0}, Acceptors: []int{2}},                             //no trajectory
		{Traj: "a.dcd", Mode: "sometimes", Hydrogens: []int{1}, Donors: []int{0}, Acceptors: []int{2}},               //no such mode
		{Traj: "a.dcd", Mode: "continuous", Hydrogens: []int{1, 2}, Donors: []int{0}, Acceptors: []int{3}},           //misaligned
		{Traj: "a.dcd", Mode: "continuous", Hydrogens: []int{1}, Donors: []int{0}, Acceptors: []int{}},               //no acceptors
		{Traj: "a.dcd", Mode: "continuous", Hydrogens: []int{1}, Donors: []int{0}, Acceptors: []int{2}, DistCrit: -1}, //negative criterion
	}
	for i, c := range bad {
		if err := c.Check(); err == nil {
			Te.Errorf("bad configuration %d passed Check", i)
		}
	}
}

func TestOpenTraj(Te *testing.T) {
	if _, err := OpenTraj("something.xyz"); err == nil {
		Te.Error("opened a trajectory of unknown format")
	}
	if _, err := OpenTraj("../test/missing.dcd"); err == nil {
		Te.Error("opened a missing file")
	}
}
