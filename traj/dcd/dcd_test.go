package dcd

import (
	"fmt"
	"math"
	"os"
	"testing"

	hbond "github.com/rmera/gohbond"
	v3 "github.com/rmera/gohbond/v3"
)

func testFrame(i, natoms int) *v3.Matrix {
	m := v3.Zeros(natoms)
	for j := 0; j < natoms; j++ {
		m.Set(j, 0, float64(i)+0.25*float64(j))
		m.Set(j, 1, float64(i)-0.5*float64(j))
		m.Set(j, 2, 0.125*float64(i*j))
	}
	return m
}

//Writes a small orthorhombic trajectory and reads it back, checking
//coordinates, boxes, time step, frame count, the end of trajectory
//signal, and random access.
func TestDCDRoundTrip(Te *testing.T) {
	const natoms = 5
	const nframes = 7
	const dt = 2.0 //ps
	os.MkdirAll("../../test", 0755)
	name := "../../test/roundtrip.dcd"
	w, err := NewWriter(name, natoms, dt)
	if err != nil {
		Te.Fatal(err)
	}
	box := []float64{20, 0, 0, 0, 30, 0, 0, 0, 40}
	for i := 0; i < nframes; i++ {
		if err := w.WNext(testFrame(i, natoms), box); err != nil {
			Te.Fatal(err)
		}
	}
	w.Close()

	traj, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	if traj.Len() != natoms {
		Te.Errorf("read %d atoms, wrote %d", traj.Len(), natoms)
	}
	if traj.Frames() != nframes {
		Te.Errorf("read %d frames, wrote %d", traj.Frames(), nframes)
	}
	if math.Abs(traj.TimeStep()-dt) > 1e-5 {
		Te.Errorf("read a time step of %v ps, wrote %v ps", traj.TimeStep(), dt)
	}
	mat := v3.Zeros(natoms)
	rbox := make([]float64, 9)
	i := 0
	for ; ; i++ {
		err := traj.Next(mat, rbox)
		if err != nil {
			if _, ok := err.(hbond.LastFrameError); ok {
				break
			}
			Te.Fatal(err)
		}
		want := testFrame(i, natoms)
		for j := 0; j < natoms; j++ {
			for k := 0; k < 3; k++ {
				if math.Abs(mat.At(j, k)-want.At(j, k)) > 1e-5 {
					Te.Errorf("frame %d atom %d: got %v, wrote %v", i, j, mat.At(j, k), want.At(j, k))
				}
			}
		}
		for k := range box {
			if math.Abs(rbox[k]-box[k]) > 1e-8 {
				Te.Errorf("frame %d box[%d]: got %v, wrote %v", i, k, rbox[k], box[k])
			}
		}
	}
	if i != nframes {
		Te.Errorf("read %d frames before EOF, wrote %d", i, nframes)
	}
	//now out of order
	for _, fr := range []int{3, 0, 6, 2} {
		if err := traj.Seek(fr); err != nil {
			Te.Fatal(err)
		}
		if err := traj.Next(mat); err != nil {
			Te.Fatal(err)
		}
		want := testFrame(fr, natoms)
		if math.Abs(mat.At(natoms-1, 0)-want.At(natoms-1, 0)) > 1e-5 {
			Te.Errorf("after Seek(%d): got %v, wrote %v", fr, mat.At(natoms-1, 0), want.At(natoms-1, 0))
		}
	}
	traj.Close()
	fmt.Println("dcd round trip over:", i, "frames")
}

//A trajectory written without boxes must read back with a zeroed box.
func TestDCDNoCell(Te *testing.T) {
	const natoms = 3
	os.MkdirAll("../../test", 0755)
	name := "../../test/nocell.dcd"
	w, err := NewWriter(name, natoms, 1.0)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := w.WNext(testFrame(i, natoms)); err != nil {
			Te.Fatal(err)
		}
	}
	//a box on a boxless trajectory can't be written
	if err := w.WNext(testFrame(4, natoms), []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}); err == nil {
		Te.Error("expected an error when adding a box to a boxless trajectory")
	}
	w.Close()
	traj, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	box := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1} //should be overwritten
	if err := traj.Next(nil, box); err != nil {
		Te.Fatal(err)
	}
	for k, v := range box {
		if v != 0 {
			Te.Errorf("box[%d] is %v, want 0 on a boxless trajectory", k, v)
		}
	}
	traj.Close()
}

//Conversion between box vectors and the 6-number cell record, both
//ways, for orthorhombic and triclinic cells, and on the cosine flavor
//of the record.
func TestDCDCellConversion(Te *testing.T) {
	//triclinic round trip
	var cell [6]float64
	box := make([]float64, 9)
	cell[0], cell[2], cell[5] = 10, 12, 14 //A, B, C
	cell[4], cell[3], cell[1] = 60, 70, 80 //alpha, beta, gamma, degrees
	cellToBox(&cell, box)
	var back [6]float64
	boxToCell(box, &back)
	for i := range cell {
		if math.Abs(cell[i]-back[i]) > 1e-9 {
			Te.Errorf("cell[%d]: %v came back as %v", i, cell[i], back[i])
		}
	}
	//the cosine flavor of an orthorhombic cell
	cos := [6]float64{20, 0, 20, 0, 0, 20}
	cellToBox(&cos, box)
	want := []float64{20, 0, 0, 0, 20, 0, 0, 0, 20}
	for i := range want {
		if math.Abs(box[i]-want[i]) > 1e-12 {
			Te.Errorf("cosine cell box[%d]: got %v, want %v", i, box[i], want[i])
		}
	}
}
