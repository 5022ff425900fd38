package hbond

import (
	"fmt"
	"math"
	"testing"

	v3 "github.com/rmera/gohbond/v3"
)

//bruteDist scans a generous range of periodic images for the true
//minimum distance, as a reference for the cell arithmetic.
func bruteDist(dx, dy, dz float64, box []float64) float64 {
	if len(box) == 0 {
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	best := math.Inf(1)
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			for k := -2; k <= 2; k++ {
				x := dx + float64(i)*box[0] + float64(j)*box[3] + float64(k)*box[6]
				y := dy + float64(i)*box[1] + float64(j)*box[4] + float64(k)*box[7]
				z := dz + float64(i)*box[2] + float64(j)*box[5] + float64(k)*box[8]
				if r := math.Sqrt(x*x + y*y + z*z); r < best {
					best = r
				}
			}
		}
	}
	return best
}

func TestAngle(Te *testing.T) {
	cases := []struct {
		a, b []float64
		want float64
	}{
		{[]float64{1, 0, 0}, []float64{0, 1, 0}, math.Pi / 2},
		{[]float64{1, 0, 0}, []float64{3, 0, 0}, 0},
		{[]float64{1, 0, 0}, []float64{-2, 0, 0}, math.Pi},
		{[]float64{1, 1, 0}, []float64{1, 0, 0}, math.Pi / 4},
	}
	for _, c := range cases {
		a, err := v3.NewMatrix(c.a)
		if err != nil {
			Te.Fatal(err)
		}
		b, err := v3.NewMatrix(c.b)
		if err != nil {
			Te.Fatal(err)
		}
		if got := Angle(a, b); math.Abs(got-c.want) > 1e-12 {
			Te.Errorf("angle between %v and %v: got %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestDistMatrixOrtho(Te *testing.T) {
	box := []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
	A := v3.Zeros(2)
	A.Set(0, 0, 0.5)
	A.Set(1, 0, 5.0)
	B := v3.Zeros(3)
	B.Set(0, 0, 9.5)
	B.Set(1, 0, 1.5)
	B.Set(2, 1, 9.0)
	dm := DistMatrix(nil, A, B, box)
	r, c := dm.Dims()
	if r != 2 || c != 3 {
		Te.Fatalf("distance matrix came out %dx%d", r, c)
	}
	want := [2][3]float64{
		{1.0, 1.0, math.Sqrt(0.5*0.5 + 1.0)}, //0.5 to 9.5 wraps to 1.0
		{4.5, 3.5, math.Sqrt(25 + 1.0)},
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(dm.At(i, j)-want[i][j]) > 1e-12 {
				Te.Errorf("d(%d,%d): got %v, want %v", i, j, dm.At(i, j), want[i][j])
			}
		}
	}
	//a zero box means no periodicity at all
	free := DistMatrix(nil, A, B, make([]float64, 9))
	if math.Abs(free.At(0, 0)-9.0) > 1e-12 {
		Te.Errorf("a zero box wrapped a distance to %v", free.At(0, 0))
	}
	//and so does a nil one
	nob := DistMatrix(nil, A, B, nil)
	if nob.At(0, 0) != free.At(0, 0) {
		Te.Error("nil and zero boxes disagree")
	}
}

func TestMinimumImageTriclinic(Te *testing.T) {
	box := []float64{10, 0, 0, 3, 10, 0, 1, 2, 10} //sheared on both off-axes
	pts := [][3]float64{
		{0, 0, 0}, {9, 9, 0}, {4.9, 5.1, 5.0}, {1, 9.5, 9.5}, {8, 1, 3},
	}
	A := v3.Zeros(len(pts))
	for i, p := range pts {
		A.Set(i, 0, p[0])
		A.Set(i, 1, p[1])
		A.Set(i, 2, p[2])
	}
	dm := DistMatrix(nil, A, A, box)
	for i := range pts {
		for j := range pts {
			want := bruteDist(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1], pts[i][2]-pts[j][2], box)
			if math.Abs(dm.At(i, j)-want) > 1e-9 {
				Te.Errorf("d(%d,%d): got %v, the brute force scan %v", i, j, dm.At(i, j), want)
			}
		}
	}
	fmt.Println("triclinic distances match the brute force scan")
}

func TestPairDistances(Te *testing.T) {
	box := []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
	A := v3.Zeros(3)
	B := v3.Zeros(3)
	A.Set(0, 0, 1)
	B.Set(0, 0, 3.5)
	A.Set(1, 2, 9.9)
	B.Set(1, 2, 0.1)
	A.Set(2, 1, 2)
	B.Set(2, 1, 2)
	got := PairDistances(nil, A, B, box)
	want := []float64{2.5, 0.2, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			Te.Errorf("pair %d: got %v, want %v", i, got[i], want[i])
		}
	}
	//the diagonal of the full matrix must agree
	dm := DistMatrix(nil, A, B, box)
	for i := range want {
		if math.Abs(dm.At(i, i)-got[i]) > 1e-12 {
			Te.Errorf("pair %d: %v from PairDistances, %v from DistMatrix", i, got[i], dm.At(i, i))
		}
	}
}

func TestPairAngles(Te *testing.T) {
	//a linear triple, a square corner, and one that only closes
	//through the periodic boundary
	D := v3.Zeros(3)
	H := v3.Zeros(3)
	A := v3.Zeros(3)
	//D-H-A on a line: 180 degrees
	H.Set(0, 0, 1)
	A.Set(0, 0, 3)
	//right angle at H
	H.Set(1, 0, 1)
	A.Set(1, 0, 1)
	A.Set(1, 1, 1)
	//H near the box edge, A wrapped across it: still linear
	D.Set(2, 0, 8.9)
	H.Set(2, 0, 9.9)
	A.Set(2, 0, 0.4)
	box := []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
	got := PairAngles(nil, D, H, A, box)
	want := []float64{math.Pi, math.Pi / 2, math.Pi}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			Te.Errorf("angle %d: got %v degrees, want %v", i, Rad2Deg(got[i]), Rad2Deg(want[i]))
		}
	}
	//without the box, the wrapped one folds back on itself
	free := PairAngles(nil, D, H, A, nil)
	if math.Abs(free[2]) > 1e-9 {
		Te.Errorf("without periodicity the edge angle is %v degrees, want 0", Rad2Deg(free[2]))
	}
}

func TestNewCellPanics(Te *testing.T) {
	for i, box := range [][]float64{
		{1, 2, 3},                   //not 9 elements
		{1, 2, 3, 4, 5, 6, 7, 8, 9}, //singular
	} {
		func() {
			defer func() {
				if recover() == nil {
					Te.Errorf("box %d was accepted", i)
				}
			}()
			newCell(box)
		}()
	}
}
