/*
 * dcd_write.go, part of gohbond.
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

package dcd

import (
	"encoding/binary"
	"io"
	"os"
	"runtime"

	v3 "github.com/rmera/gohbond/v3"
)

//Container for a Charmm/NAMD binary trajectory file opened for
//writing.
type DCDWObj struct {
	natoms   int32
	writable bool
	filename string
	frames   int32
	cell     bool //does each frame carry a unit cell block?
	started  bool //has the first frame been written?
	dcd      *os.File
	xyz      [][]float32
	cellbuf  [6]float64
	endian   binary.ByteOrder
}

//NewWriter initializes a DCD trajectory for writing, little endian and
//Charmm-flavored. dt, if given, is the time between frames, in ps; it
//is stored in the header, in AKMA units, so readers can recover it.
func NewWriter(filename string, natoms int, dt ...float64) (*DCDWObj, error) {
	traj := new(DCDWObj)
	traj.natoms = int32(natoms)
	traj.filename = filename
	var delta float64
	if len(dt) > 0 && dt[0] > 0 {
		delta = dt[0] / akma2ps
	}
	if err := traj.initWrite(filename, float32(delta)); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	return traj, nil
}

//initWrite writes the full DCD header: the frame count (kept current
//as frames get written), a unit delta, the save interval, the Charmm
//flags, a dummy title, and the atom count.
func (D *DCDWObj) initWrite(name string, delta float32) error {
	wrapbinerr := func(err error) error {
		return Error{err.Error(), D.filename, []string{"binary.Write", "initWrite"}, true}
	}
	if D.natoms <= 0 {
		return Error{"the number of atoms must be positive", D.filename, []string{"initWrite"}, true}
	}
	D.endian = binary.LittleEndian
	var err error
	D.dcd, err = os.Create(name)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"os.Create", "initWrite"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//For some reason, we have to write this magic number.
	magic := []byte("CORD")
	if err := binary.Write(D.dcd, D.endian, magic); err != nil {
		return wrapbinerr(err)
	}
	//The frames in the file go here. No frames written yet, but this
	//part gets updated after every write.
	if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	//initial time
	if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	//step interval (nsavc)
	if err := binary.Write(D.dcd, D.endian, int32(1)); err != nil {
		return wrapbinerr(err)
	}
	//5 zeros, plus the fixed atoms we don't support
	for i := 0; i < 6; i++ {
		if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//time between saved frames, in AKMA units
	if err := binary.Write(D.dcd, D.endian, delta); err != nil {
		return wrapbinerr(err)
	}
	//the unit cell flag. Zero for now; if the first frame brings a
	//box, WNext comes back here and raises it.
	if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
		return wrapbinerr(err)
	}
	//8 zeros for charmm
	for i := 0; i < 8; i++ {
		if err := binary.Write(D.dcd, D.endian, int32(0)); err != nil {
			return wrapbinerr(err)
		}
	}
	//charmm version, let's say, 24
	if err := binary.Write(D.dcd, D.endian, int32(24)); err != nil {
		return wrapbinerr(err)
	}
	//don't ask me why
	if err := binary.Write(D.dcd, D.endian, int32(84)); err != nil {
		return wrapbinerr(err)
	}
	//the title record: 2 title units plus the int32 holding that count
	var ntitle int32 = 2
	trec := 4 + ntitle*mAXTITLE
	if err := binary.Write(D.dcd, D.endian, trec); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, ntitle); err != nil {
		return wrapbinerr(err)
	}
	title := make([]byte, ntitle*mAXTITLE)
	copy(title, []byte("Written by goHBond"))
	title[len(title)-1] = byte('\000') //null-ended
	if err := binary.Write(D.dcd, D.endian, title); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, trec); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	//the number of atoms in each snapshot
	if err := binary.Write(D.dcd, D.endian, D.natoms); err != nil {
		return wrapbinerr(err)
	}
	if err := binary.Write(D.dcd, D.endian, int32(4)); err != nil {
		return wrapbinerr(err)
	}
	runtime.SetFinalizer(D, func(D *DCDWObj) {
		D.dcd.Close()
	})
	D.writable = true
	return nil
}

//WNext writes the next frame to the trajectory. Whether the frames
//carry a unit cell is decided by the first frame written: after that,
//either every frame brings its box or none does, since a DCD file
//needs all its frames to have the same size.
func (D *DCDWObj) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !D.writable {
		return Error{TrajUnIniWrite, D.filename, []string{"WNext"}, true}
	}
	if towrite == nil {
		return Error{NilCoordinates, D.filename, []string{"WNext"}, true}
	}
	if int32(towrite.NVecs()) != D.natoms {
		return Error{"Coordinates don't match the trajectory size", D.filename, []string{"WNext"}, true}
	}
	if D.xyz == nil {
		D.xyz = make([][]float32, 3)
		for i := range D.xyz {
			D.xyz[i] = make([]float32, int(D.natoms))
		}
	}
	hasbox := len(box) > 0 && len(box[0]) >= 9
	if !D.started {
		D.started = true
		if hasbox {
			D.cell = true
			if err := D.raiseCellFlag(); err != nil {
				return errDecorate(err, "WNext")
			}
		}
	}
	if D.cell != hasbox {
		return Error{"either every frame of a DCD carries a box, or none does", D.filename, []string{"WNext"}, true}
	}
	if D.cell {
		boxToCell(box[0], &D.cellbuf)
		if err := binary.Write(D.dcd, D.endian, int32(48)); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "WNext"}, true}
		}
		if err := binary.Write(D.dcd, D.endian, D.cellbuf[:]); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "WNext"}, true}
		}
		if err := binary.Write(D.dcd, D.endian, int32(48)); err != nil {
			return Error{err.Error(), D.filename, []string{"binary.Write", "WNext"}, true}
		}
	}
	for i := 0; i < int(D.natoms); i++ {
		D.xyz[0][i] = float32(towrite.At(i, 0))
		D.xyz[1][i] = float32(towrite.At(i, 1))
		D.xyz[2][i] = float32(towrite.At(i, 2))
	}
	for _, block := range D.xyz {
		if err := D.writeFloat32Block(block); err != nil {
			return errDecorate(err, "WNext")
		}
	}
	D.frames++
	if err := D.updateFrames(); err != nil {
		return errDecorate(err, "WNext")
	}
	return nil
}

//writeFloat32Block writes a block of float32s to the file, with its
//size markers around it.
func (D *DCDWObj) writeFloat32Block(block []float32) error {
	blocksize := int32(len(block)) * 4 //the size goes in bytes
	if err := binary.Write(D.dcd, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, block); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, blocksize); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "writeFloat32Block"}, true}
	}
	return nil
}

//DCD is silly enough to require the number of frames at the beginning,
//so after each frame we go back and keep it current.
func (D *DCDWObj) updateFrames() error {
	currentoffset, err := D.dcd.Seek(0, io.SeekCurrent) //we'll need it to go back
	if err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "updateFrames"}, true}
	}
	//the frame count sits right after the initial 84 and the magic
	//number.
	if _, err := D.dcd.Seek(8, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "updateFrames"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, D.frames); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "updateFrames"}, true}
	}
	if _, err := D.dcd.Seek(currentoffset, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "updateFrames"}, true}
	}
	return nil
}

//raiseCellFlag rewrites the header's unit cell flag, which sits right
//after the magic number and nine header ints.
func (D *DCDWObj) raiseCellFlag() error {
	currentoffset, err := D.dcd.Seek(0, io.SeekCurrent)
	if err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "raiseCellFlag"}, true}
	}
	if _, err := D.dcd.Seek(48, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "raiseCellFlag"}, true}
	}
	if err := binary.Write(D.dcd, D.endian, int32(1)); err != nil {
		return Error{err.Error(), D.filename, []string{"binary.Write", "raiseCellFlag"}, true}
	}
	if _, err := D.dcd.Seek(currentoffset, io.SeekStart); err != nil {
		return Error{err.Error(), D.filename, []string{"dcd.Seek", "raiseCellFlag"}, true}
	}
	return nil
}

//Close closes the trajectory. The object can't be written to after
//this call.
func (D *DCDWObj) Close() {
	if !D.writable {
		return
	}
	D.dcd.Close()
	D.writable = false
}
