/*
 * geometry.go, part of gohbond.
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
	"math"

	v3 "github.com/rmera/gohbond/v3"
	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero.

//Deg2Rad returns the given angle in radians.
func Deg2Rad(f float64) float64 {
	return f * math.Pi / 180
}

//Rad2Deg returns the given angle in degrees.
func Rad2Deg(f float64) float64 {
	return f * 180 / math.Pi
}

//Angle takes 2 vectors (the first vec of each matrix) and gets the angle
//in radians between them.
func Angle(v1, v2 *v3.Matrix) float64 {
	normproduct := v1.Norm() * v2.Norm()
	if normproduct <= appzero {
		return 0
	}
	argument := v1.Dot(v2) / normproduct
	//Take care of floating point math errors
	if math.Abs(argument-1) <= appzero {
		argument = 1
	} else if math.Abs(argument+1) <= appzero {
		argument = -1
	}
	angle := math.Acos(argument)
	if math.Abs(angle) <= appzero {
		return 0.00
	}
	return angle
}

//cell holds a simulation box in a form ready for minimum image
//calculations. A nil box means no periodicity.
type cell struct {
	box   []float64
	ortho bool
	inv   [9]float64 //cartesian to fractional, triclinic only
}

//newCell digests a box given as the 9 components of the 3 box vectors
//(row after row). It panics if box is neither empty nor of length 9,
//as the callers are expected to have validated their input.
func newCell(box []float64) *cell {
	if len(box) == 0 {
		return &cell{}
	}
	if len(box) != 9 {
		panic("goHBond/geometry: a box needs 9 elements, the 3 box vectors row after row")
	}
	c := &cell{box: box}
	if math.Abs(box[1]) <= appzero && math.Abs(box[2]) <= appzero &&
		math.Abs(box[3]) <= appzero && math.Abs(box[5]) <= appzero &&
		math.Abs(box[6]) <= appzero && math.Abs(box[7]) <= appzero {
		c.ortho = true
		if box[0] <= appzero && box[4] <= appzero && box[8] <= appzero {
			c.box = nil //a zero box carries no periodicity at all
		}
		return c
	}
	//triclinic: invert the matrix with the box vectors as columns,
	//so we can take displacements to fractional coordinates.
	m := [9]float64{
		box[0], box[3], box[6],
		box[1], box[4], box[7],
		box[2], box[5], box[8],
	}
	det := m[0]*(m[4]*m[8]-m[5]*m[7]) - m[1]*(m[3]*m[8]-m[5]*m[6]) + m[2]*(m[3]*m[7]-m[4]*m[6])
	if math.Abs(det) <= appzero {
		panic("goHBond/geometry: singular box")
	}
	id := 1 / det
	c.inv = [9]float64{
		(m[4]*m[8] - m[5]*m[7]) * id, (m[2]*m[7] - m[1]*m[8]) * id, (m[1]*m[5] - m[2]*m[4]) * id,
		(m[5]*m[6] - m[3]*m[8]) * id, (m[0]*m[8] - m[2]*m[6]) * id, (m[2]*m[3] - m[0]*m[5]) * id,
		(m[3]*m[7] - m[4]*m[6]) * id, (m[1]*m[6] - m[0]*m[7]) * id, (m[0]*m[4] - m[1]*m[3]) * id,
	}
	return c
}

//delta applies the minimum image convention to the displacement d.
func (c *cell) delta(d *[3]float64) {
	if c.box == nil {
		return
	}
	if c.ortho {
		for k := 0; k < 3; k++ {
			L := c.box[k*4]
			if L > appzero {
				d[k] -= L * math.Round(d[k]/L)
			}
		}
		return
	}
	//reduce via fractional coordinates first
	var f [3]float64
	for k := 0; k < 3; k++ {
		f[k] = c.inv[k*3]*d[0] + c.inv[k*3+1]*d[1] + c.inv[k*3+2]*d[2]
		f[k] -= math.Round(f[k])
	}
	b := c.box
	for k := 0; k < 3; k++ {
		d[k] = f[0]*b[k] + f[1]*b[3+k] + f[2]*b[6+k]
	}
	//the reduced image is not always the closest one in a triclinic
	//cell, so the neighboring images still need to be scanned.
	best := d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
	win := *d
	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			for k := -1; k <= 1; k++ {
				if i == 0 && j == 0 && k == 0 {
					continue
				}
				x := d[0] + float64(i)*b[0] + float64(j)*b[3] + float64(k)*b[6]
				y := d[1] + float64(i)*b[1] + float64(j)*b[4] + float64(k)*b[7]
				z := d[2] + float64(i)*b[2] + float64(j)*b[5] + float64(k)*b[8]
				if r2 := x*x + y*y + z*z; r2 < best {
					best = r2
					win = [3]float64{x, y, z}
				}
			}
		}
	}
	*d = win
}

//DistMatrix puts in dst the minimum image distances between every vector
//of A and every vector of B, so dst_ij is the distance between the ith
//vector of A and the jth vector of B. If dst is nil, a new matrix is
//allocated. box can be nil/empty (no periodicity) or the 9 components
//of the 3 box vectors. Panics on mismatched dimensions.
func DistMatrix(dst *mat.Dense, A, B *v3.Matrix, box []float64) *mat.Dense {
	ar := A.NVecs()
	br := B.NVecs()
	if dst == nil {
		dst = mat.NewDense(ar, br, nil)
	} else if r, c := dst.Dims(); r != ar || c != br {
		panic("goHBond/geometry: destination matrix with wrong dimensions")
	}
	c := newCell(box)
	var d [3]float64
	for i := 0; i < ar; i++ {
		ax, ay, az := A.At(i, 0), A.At(i, 1), A.At(i, 2)
		for j := 0; j < br; j++ {
			d[0] = ax - B.At(j, 0)
			d[1] = ay - B.At(j, 1)
			d[2] = az - B.At(j, 2)
			c.delta(&d)
			dst.Set(i, j, math.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2]))
		}
	}
	return dst
}

//PairDistances puts in dst the minimum image distance between each vector
//of A and the corresponding vector of B. If dst is nil, a new slice is
//allocated. Panics on mismatched dimensions.
func PairDistances(dst []float64, A, B *v3.Matrix, box []float64) []float64 {
	n := A.NVecs()
	if B.NVecs() != n {
		panic("goHBond/geometry: A and B must have the same number of vectors")
	}
	if dst == nil {
		dst = make([]float64, n)
	} else if len(dst) != n {
		panic("goHBond/geometry: destination slice with wrong length")
	}
	c := newCell(box)
	var d [3]float64
	for i := 0; i < n; i++ {
		d[0] = A.At(i, 0) - B.At(i, 0)
		d[1] = A.At(i, 1) - B.At(i, 1)
		d[2] = A.At(i, 2) - B.At(i, 2)
		c.delta(&d)
		dst[i] = math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	}
	return dst
}

//PairAngles puts in dst, for each row i, the angle (in radians) at the
//vertex B_i of the triple A_i, B_i, C_i. The two displacement vectors
//are taken under the minimum image convention. If dst is nil, a new
//slice is allocated. Panics on mismatched dimensions.
func PairAngles(dst []float64, A, B, C *v3.Matrix, box []float64) []float64 {
	n := A.NVecs()
	if B.NVecs() != n || C.NVecs() != n {
		panic("goHBond/geometry: A, B and C must have the same number of vectors")
	}
	if dst == nil {
		dst = make([]float64, n)
	} else if len(dst) != n {
		panic("goHBond/geometry: destination slice with wrong length")
	}
	cl := newCell(box)
	var u, v [3]float64
	for i := 0; i < n; i++ {
		bx, by, bz := B.At(i, 0), B.At(i, 1), B.At(i, 2)
		u[0] = A.At(i, 0) - bx
		u[1] = A.At(i, 1) - by
		u[2] = A.At(i, 2) - bz
		v[0] = C.At(i, 0) - bx
		v[1] = C.At(i, 1) - by
		v[2] = C.At(i, 2) - bz
		cl.delta(&u)
		cl.delta(&v)
		normproduct := math.Sqrt((u[0]*u[0] + u[1]*u[1] + u[2]*u[2]) * (v[0]*v[0] + v[1]*v[1] + v[2]*v[2]))
		if normproduct <= appzero {
			dst[i] = 0
			continue
		}
		argument := (u[0]*v[0] + u[1]*v[1] + u[2]*v[2]) / normproduct
		if math.Abs(argument-1) <= appzero {
			argument = 1
		} else if math.Abs(argument+1) <= appzero {
			argument = -1
		}
		dst[i] = math.Acos(argument)
	}
	return dst
}
