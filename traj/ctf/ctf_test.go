package ctf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"testing"

	hbond "github.com/rmera/gohbond"
	v3 "github.com/rmera/gohbond/v3"
)

var rootdirtest string = "../../test"

//testFrame builds the ith frame of the reference trajectory. The
//coordinates include a non-terminating fraction so the test proves
//that the format round-trips float64 exactly.
func testFrame(i, natoms int) *v3.Matrix {
	m := v3.Zeros(natoms)
	for j := 0; j < natoms; j++ {
		m.Set(j, 0, float64(i)+float64(j)/3.0)
		m.Set(j, 1, float64(i)-float64(j)/7.0)
		m.Set(j, 2, float64(i*j)+0.1)
	}
	return m
}

func testBox(i int) []float64 {
	return []float64{20 + float64(i)/3.0, 0, 0, 0, 30, 0, 0, 0, 40}
}

//Writes and re-reads a small trajectory in each of the compressed
//variants of the format. Even frames carry a box, odd frames don't.
func TestCtfRoundTrip(Te *testing.T) {
	natoms := 4
	nframes := 5
	dt := 0.5
	err := os.MkdirAll(rootdirtest, 0755)
	if err != nil {
		Te.Fatal(err)
	}
	for _, name := range []string{"round.ctf", "round.ctz", "round.ctl", "round.ctr"} {
		fmt.Println("ctf round trip:", name)
		full := rootdirtest + "/" + name
		W, err := NewWriter(full, natoms, dt)
		if err != nil {
			Te.Fatal(err)
		}
		for i := 0; i < nframes; i++ {
			if i%2 == 0 {
				err = W.WNext(testFrame(i, natoms), testBox(i))
			} else {
				err = W.WNext(testFrame(i, natoms))
			}
			if err != nil {
				Te.Fatal(err)
			}
		}
		W.Close()
		R, err := New(full)
		if err != nil {
			Te.Fatal(err)
		}
		if R.Len() != natoms || R.Frames() != nframes {
			Te.Errorf("%s: got %d atoms and %d frames, want %d and %d", name, R.Len(), R.Frames(), natoms, nframes)
		}
		if R.TimeStep() != dt {
			Te.Errorf("%s: the time step %v didn't survive the trip", name, R.TimeStep())
		}
		got := v3.Zeros(natoms)
		box := make([]float64, 9)
		read := 0
		for ; ; read++ {
			err = R.Next(got, box)
			if err != nil {
				if _, ok := err.(hbond.LastFrameError); ok {
					break
				}
				Te.Fatal(err)
			}
			want := testFrame(read, natoms)
			for j := 0; j < natoms; j++ {
				for k := 0; k < 3; k++ {
					if got.At(j, k) != want.At(j, k) {
						Te.Errorf("%s frame %d atom %d: got %v, want %v", name, read, j, got.VecView(j), want.VecView(j))
					}
				}
			}
			if read%2 == 0 {
				wbox := testBox(read)
				for k := 0; k < 9; k++ {
					if box[k] != wbox[k] {
						Te.Errorf("%s frame %d: box %v, want %v", name, read, box, wbox)
					}
				}
			} else {
				for k := 0; k < 9; k++ {
					if box[k] != 0 {
						Te.Errorf("%s frame %d should have no box, got %v", name, read, box)
					}
				}
			}
		}
		if read != nframes {
			Te.Errorf("%s: read %d frames, want %d", name, read, nframes)
		}
		//after the last frame every Next keeps signaling the end
		if err := R.Next(got); err == nil {
			Te.Errorf("%s: Next kept reading past the end", name)
		}
		for _, i := range []int{3, 0, 4, 2} {
			if err := R.Seek(i); err != nil {
				Te.Fatal(err)
			}
			if err := R.Next(got); err != nil {
				Te.Fatal(err)
			}
			want := testFrame(i, natoms)
			if got.At(natoms-1, 0) != want.At(natoms-1, 0) {
				Te.Errorf("%s: Seek(%d) read the wrong frame", name, i)
			}
		}
		if err := R.Seek(nframes); err == nil {
			Te.Errorf("%s: Seek past the end didn't fail", name)
		}
		R.Close()
	}
	fmt.Println("ctf round trips done")
}

//A trajectory without a declared time step reads back with TimeStep 0,
//and reading with a nil output just advances the frame counter.
func TestCtfNoDt(Te *testing.T) {
	err := os.MkdirAll(rootdirtest, 0755)
	if err != nil {
		Te.Fatal(err)
	}
	full := rootdirtest + "/nodt.ctf"
	W, err := NewWriter(full, 2, 0)
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := W.WNext(testFrame(i, 2)); err != nil {
			Te.Fatal(err)
		}
	}
	W.Close()
	R, err := New(full)
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	if R.TimeStep() != 0 {
		Te.Errorf("got time step %v from a file that declares none", R.TimeStep())
	}
	if err := R.Next(nil); err != nil {
		Te.Fatal(err)
	}
	got := v3.Zeros(2)
	if err := R.Next(got); err != nil {
		Te.Fatal(err)
	}
	if got.At(0, 0) != testFrame(1, 2).At(0, 0) {
		Te.Error("a nil-output Next didn't advance the trajectory")
	}
}

//A file that ends in the middle of a frame must be rejected on open.
func TestCtfTruncated(Te *testing.T) {
	err := os.MkdirAll(rootdirtest, 0755)
	if err != nil {
		Te.Fatal(err)
	}
	full := rootdirtest + "/broken.ctz"
	f, err := os.Create(full)
	if err != nil {
		Te.Fatal(err)
	}
	z := gzip.NewWriter(f)
	w := bufio.NewWriter(z)
	fmt.Fprintf(w, "** 3\n1 2 3\n4 5 6\n")
	w.Flush()
	z.Close()
	f.Close()
	_, err = New(full)
	if err == nil {
		Te.Fatal("a truncated trajectory was read without complaint")
	}
	fmt.Println("truncated file rejected with:", err)
}
