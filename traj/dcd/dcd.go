/*
 * dcd.go, part of gohbond.
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

//Package dcd reads and writes CHARMM/NAMD binary trajectories. Both
//endiannesses are handled, as are the unit cell extrablocks, which get
//translated to and from box vectors. Files with a regular frame layout
//can be read in any order, not just sequentially.
package dcd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"runtime"

	v3 "github.com/rmera/gohbond/v3"
)

const mAXTITLE int32 = 80

//The AKMA time unit of CHARMM, in ps. The delta in a DCD header comes
//in AKMA units.
const akma2ps = 0.04888821

//Container for a Charmm/NAMD binary trajectory file.
type DCDObj struct {
	natoms     int32
	readable   bool
	readLast   bool //Have we read the last frame?
	filename   string
	extrablock bool
	fourdim    bool
	fixed      int32    //Fixed atoms (not supported)
	dcd        *os.File //The DCD file
	endian     binary.ByteOrder
	frames     int
	dt         float64 //ps
	headerSize int64
	frameSize  int64
	seekable   bool
	xyz        [][]float32
	cellbuf    [6]float64
}

//New opens the DCD trajectory in filename for reading.
func New(filename string) (*DCDObj, error) {
	traj := new(DCDObj)
	if err := traj.initRead(filename); err != nil {
		return nil, errDecorate(err, "New")
	}
	traj.xyz = make([][]float32, 3)
	for i := range traj.xyz {
		traj.xyz[i] = make([]float32, int(traj.natoms))
	}
	return traj, nil
}

//Readable returns true if the object is ready to be read from,
//false otherwise. It doesn't guarantee that there is something
//to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

//initRead opens the file and digests its header. It supports big and
//little endianness, and Charmm or NAMD (>=2.1) flavors, but no fixed
//atoms.
func (D *DCDObj) initRead(name string) error {
	D.endian = binary.LittleEndian
	NB := bytes.NewBuffer //shortness sake
	var err error
	D.filename = name
	D.dcd, err = os.Open(name)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"os.Open", "initRead"}, true}
	}
	var check int32
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//For some reason the first thing we should read is an 84.
	//If this fails it means that the file is big endian.
	if check != 84 {
		D.endian = binary.BigEndian
	}
	//Then the magic number "CORD", also for some unknown reason.
	magic := make([]byte, 4)
	if err := binary.Read(D.dcd, D.endian, magic); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if string(magic) != "CORD" {
		return Error{"Wrong magic number", D.filename, []string{"initRead"}, true}
	}
	//The whole icntrl block in one chunk, for random access.
	buf := make([]byte, 80)
	if err := binary.Read(D.dcd, D.endian, buf); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	var nset, nsavc int32
	if err := binary.Read(NB(buf[0:]), D.endian, &nset); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(NB(buf[8:]), D.endian, &nsavc); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	//X-plor sets the last int to zero, charmm sets it to its version
	//number. If we have a charmm file we get some additional flags.
	if err := binary.Read(NB(buf[76:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check == 0 {
		return Error{"X-plor DCD not supported", D.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(NB(buf[40:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 0 {
		D.extrablock = true
	}
	if err := binary.Read(NB(buf[44:]), D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check == 1 {
		D.fourdim = true
	}
	if err := binary.Read(NB(buf[32:]), D.endian, &D.fixed); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if D.fixed != 0 {
		return Error{"Fixed atoms not supported", D.filename, []string{"initRead"}, true}
	}
	var delta float32 //This should work only on Charmm and namd >=2.1
	if err := binary.Read(NB(buf[36:]), D.endian, &delta); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	D.dt = float64(delta) * akma2ps
	if nsavc > 0 {
		D.dt *= float64(nsavc)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 84 {
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	//The title record: its marker, how many units of mAXTITLE it has,
	//and the title itself.
	var trec int32
	if err := binary.Read(D.dcd, D.endian, &trec); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	var ntitle int32
	if err := binary.Read(D.dcd, D.endian, &ntitle); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	title := make([]byte, mAXTITLE*ntitle)
	if err := binary.Read(D.dcd, D.endian, title); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != trec {
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 4 { //one must read a 4 before the natoms
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &D.natoms); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "initRead"}, true}
	}
	if check != 4 { //and one more 4
		return Error{WrongFormat, D.filename, []string{"initRead"}, true}
	}
	if err := D.survey(nset); err != nil {
		return errDecorate(err, "initRead")
	}
	runtime.SetFinalizer(D, func(D *DCDObj) {
		D.dcd.Close()
	})
	D.readable = true
	return nil
}

//survey sizes the frames from the header flags and cross-checks the
//frame count in the header against the file's size. When the header
//lies, which happens with writers that died before updating it, the
//count is recomputed. A file whose size fits no whole number of frames
//is declared irregular: still sequentially readable, but not seekable.
func (D *DCDObj) survey(nset int32) error {
	var err error
	D.headerSize, err = D.dcd.Seek(0, io.SeekCurrent)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "survey"}, true}
	}
	coords := int64(8 + 4*D.natoms)
	D.frameSize = 3 * coords
	if D.extrablock {
		D.frameSize += 56 //marker, 6 float64, marker
	}
	if D.fourdim {
		D.frameSize += coords
	}
	st, err := D.dcd.Stat()
	if err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Stat", "survey"}, true}
	}
	data := st.Size() - D.headerSize
	D.frames = int(nset)
	D.seekable = true
	switch {
	case data == int64(nset)*D.frameSize:
		//the header told the truth
	case data%D.frameSize == 0:
		D.frames = int(data / D.frameSize)
		log.Printf("dcd file %s claims %d frames but holds %d; the file's count wins", D.filename, nset, D.frames)
	default:
		D.seekable = false
		log.Printf("dcd file %s has an irregular layout; only sequential reading will work", D.filename)
	}
	return nil
}

//Next reads the next frame of the trajectory into output, or discards
//it if output is nil. If a box buffer of at least 9 elements is given,
//it gets the frame's box vectors, or zeroes if the trajectory carries
//no unit cell.
func (D *DCDObj) Next(output *v3.Matrix, box ...[]float64) error {
	if !D.readable {
		return Error{TrajUnIniRead, D.filename, []string{"Next"}, true}
	}
	if D.readLast {
		return newlastFrameError(D.filename, "Next")
	}
	cell, err := D.nextRaw(D.xyz)
	if err != nil {
		return err //already wrapped, or a lastFrameError
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		if cell {
			cellToBox(&D.cellbuf, box[0])
		} else {
			for i := 0; i < 9; i++ {
				box[0][i] = 0
			}
		}
	}
	if output == nil {
		return nil
	}
	if output.NVecs() != int(D.natoms) {
		return Error{NotEnoughSpace, D.filename, []string{"Next"}, true}
	}
	for i := 0; i < int(D.natoms); i++ {
		output.Set(i, 0, float64(D.xyz[0][i]))
		output.Set(i, 1, float64(D.xyz[1][i]))
		output.Set(i, 2, float64(D.xyz[2][i]))
	}
	return nil
}

//nextRaw reads a frame into blocks, leaving any unit cell found in
//D.cellbuf, and reporting whether there was one.
func (D *DCDObj) nextRaw(blocks [][]float32) (bool, error) {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return false, Error{NotEnoughSpace, D.filename, []string{"nextRaw"}, true}
	}
	//If there is an extra block we read the cell from it. Sadly, even
	//when the header announces the block, some trajectories don't have
	//it in every snapshot, so the block size also decides whether what
	//starts here is a cell or the X coordinates.
	cell := false
	var blocksize int32
	if D.extrablock {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return false, D.eof2LastFrame(err, "nextRaw")
		}
		if blocksize == 48 {
			if err := binary.Read(D.dcd, D.endian, D.cellbuf[:]); err != nil {
				return false, Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
			}
			var check int32
			if err := binary.Read(D.dcd, D.endian, &check); err != nil {
				return false, Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
			}
			if check != blocksize {
				return false, Error{SecurityCheckFailed, D.filename, []string{"nextRaw"}, true}
			}
			cell = true
			blocksize = 0
		} else if blocksize != D.natoms*4 {
			//neither a cell nor the X block; skip it whole.
			if err := D.skipBlock(blocksize); err != nil {
				return false, errDecorate(err, "nextRaw")
			}
			blocksize = 0
		}
	}
	//now the coords, each dimension as a block of float32
	if blocksize == 0 {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return false, D.eof2LastFrame(err, "nextRaw")
		}
	}
	if err := D.readFloat32Block(blocksize, blocks[0]); err != nil {
		return false, errDecorate(err, "nextRaw")
	}
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return false, Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
	}
	if err := D.readFloat32Block(blocksize, blocks[1]); err != nil {
		return false, errDecorate(err, "nextRaw")
	}
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return false, Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
	}
	if err := D.readFloat32Block(blocksize, blocks[2]); err != nil {
		return false, errDecorate(err, "nextRaw")
	}
	//we skip the 4-D values if they exist. Apparently this is not
	//present in the last snapshot, so an EOF here only means that we
	//have read the last one.
	if D.fourdim {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			if err.Error() == "EOF" {
				D.readLast = true
			} else {
				return cell, Error{err.Error(), D.filename, []string{"binary.Read", "nextRaw"}, true}
			}
		}
		if !D.readLast {
			if err := D.skipBlock(blocksize); err != nil {
				return cell, errDecorate(err, "nextRaw")
			}
		}
	}
	return cell, nil
}

//eof2LastFrame turns the EOF found where a frame should start into the
//friendly "we are done" error; anything else is a real problem.
func (D *DCDObj) eof2LastFrame(err error, caller string) error {
	if err.Error() == "EOF" {
		return newlastFrameError(D.filename, caller)
	}
	return Error{err.Error(), D.filename, []string{caller}, true}
}

//readFloat32Block reads a blocksize-sized block into block, and checks
//the closing size marker.
func (D *DCDObj) readFloat32Block(blocksize int32, block []float32) error {
	if blocksize != int32(len(block))*4 {
		return Error{WrongFormat, D.filename, []string{"readFloat32Block"}, true}
	}
	var check int32
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readFloat32Block"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "readFloat32Block"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"readFloat32Block"}, true}
	}
	return nil
}

//skipBlock jumps over a block of blocksize bytes, checking the closing
//size marker.
func (D *DCDObj) skipBlock(blocksize int32) error {
	block := make([]byte, blocksize)
	var check int32
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "skipBlock"}, true}
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Read", "skipBlock"}, true}
	}
	if check != blocksize {
		return Error{SecurityCheckFailed, D.filename, []string{"skipBlock"}, true}
	}
	return nil
}

//Len returns the number of atoms per frame.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

//Frames returns the number of frames in the trajectory.
func (D *DCDObj) Frames() int {
	return D.frames
}

//TimeStep returns the time between consecutive frames, in ps, as
//the header's delta times its save interval. A trajectory written
//without time information returns 0.
func (D *DCDObj) TimeStep() float64 {
	return D.dt
}

//Seek positions the trajectory so the following call to Next reads the
//ith frame, counting from 0. It only works on files whose every frame
//has the same size on disk, which New checks for.
func (D *DCDObj) Seek(i int) error {
	if !D.readable {
		return Error{TrajUnIniRead, D.filename, []string{"Seek"}, true}
	}
	if !D.seekable {
		return Error{NotSeekable, D.filename, []string{"Seek"}, true}
	}
	if i < 0 || i >= D.frames {
		return Error{fmt.Sprintf("frame %d out of range: the trajectory has %d frames", i, D.frames), D.filename, []string{"Seek"}, true}
	}
	if _, err := D.dcd.Seek(D.headerSize+int64(i)*D.frameSize, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "Seek"}, true}
	}
	D.readLast = false
	return nil
}

//Close closes the underlying file. The object can't be read after
//this call.
func (D *DCDObj) Close() {
	if !D.readable {
		return
	}
	D.dcd.Close()
	D.readable = false
}

//cellToBox converts the 6-number unit cell record of a DCD frame,
//[A, gamma, B, beta, alpha, C], into the 9 components of the 3 box
//vectors, rows of the usual lower-triangular form. Charmm and newer
//NAMD store the cosines of the angles, NAMD 2.5 stored plain degrees;
//values in [-1,1] are taken to be cosines, as every angle of a real
//simulation cell is far from the 1-degree range that could confuse
//the two.
func cellToBox(cell *[6]float64, box []float64) {
	A, B, C := cell[0], cell[2], cell[5]
	if A <= 0 && B <= 0 && C <= 0 {
		for i := 0; i < 9; i++ {
			box[i] = 0
		}
		return
	}
	alpha, beta, gamma := cell[4], cell[3], cell[1]
	if alpha >= -1 && alpha <= 1 && beta >= -1 && beta <= 1 && gamma >= -1 && gamma <= 1 {
		alpha = 90 - math.Asin(alpha)*180/math.Pi
		beta = 90 - math.Asin(beta)*180/math.Pi
		gamma = 90 - math.Asin(gamma)*180/math.Pi
	}
	cosa := cosdeg(alpha)
	cosb := cosdeg(beta)
	cosg, sing := cosdeg(gamma), sindeg(gamma)
	box[0], box[1], box[2] = A, 0, 0
	box[3], box[4], box[5] = B*cosg, B*sing, 0
	box[6] = C * cosb
	box[7] = C * (cosa - cosb*cosg) / sing
	z2 := C*C - box[6]*box[6] - box[7]*box[7]
	if z2 < 0 {
		z2 = 0
	}
	box[8] = math.Sqrt(z2)
}

//boxToCell is the inverse of cellToBox. The angles are written as
//degrees, which both branches of the reading heuristic land on.
func boxToCell(box []float64, cell *[6]float64) {
	norm := func(v []float64) float64 {
		return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	angle := func(a, b []float64, na, nb float64) float64 {
		if na <= 0 || nb <= 0 {
			return 90
		}
		d := a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
		if d == 0 { //keep orthogonal cells at exactly 90
			return 90
		}
		arg := d / (na * nb)
		if arg > 1 {
			arg = 1
		} else if arg < -1 {
			arg = -1
		}
		return math.Acos(arg) * 180 / math.Pi
	}
	va, vb, vc := box[0:3], box[3:6], box[6:9]
	A, B, C := norm(va), norm(vb), norm(vc)
	cell[0], cell[2], cell[5] = A, B, C
	cell[4] = angle(vb, vc, B, C) //alpha
	cell[3] = angle(va, vc, A, C) //beta
	cell[1] = angle(va, vb, A, B) //gamma
}

func cosdeg(d float64) float64 {
	if d == 90 {
		return 0
	}
	return math.Cos(d * math.Pi / 180)
}

func sindeg(d float64) float64 {
	if d == 90 {
		return 1
	}
	return math.Sin(d * math.Pi / 180)
}
