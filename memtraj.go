package hbond

import (
	v3 "github.com/rmera/gohbond/v3"
)

//MemTraj is a trajectory held in memory: a slice of frames plus,
//optionally, one box per frame, and a time step. It implements
//SeekTraj, so it can go anywhere a file-backed trajectory goes.
type MemTraj struct {
	frames []*v3.Matrix
	boxes  [][]float64
	dt     float64
	natoms int
	curr   int
}

//NewMemTraj builds an in-memory trajectory from frames, which must all
//have the same number of atoms. dt is the time between frames, in ps.
//boxes can be nil (no periodicity) or hold one 9-element box per frame.
func NewMemTraj(dt float64, frames []*v3.Matrix, boxes [][]float64) (*MemTraj, error) {
	if len(frames) == 0 {
		return nil, cerrf("NewMemTraj", "no frames given")
	}
	if dt <= 0 {
		return nil, cerrf("NewMemTraj", "the time step must be positive: got %v ps", dt)
	}
	natoms := frames[0].NVecs()
	for i, f := range frames {
		if f == nil {
			return nil, cerrf("NewMemTraj", "frame %d is nil", i)
		}
		if f.NVecs() != natoms {
			return nil, cerrf("NewMemTraj", "frame %d has %d atoms, the first frame has %d", i, f.NVecs(), natoms)
		}
	}
	if boxes != nil {
		if len(boxes) != len(frames) {
			return nil, cerrf("NewMemTraj", "%d boxes for %d frames", len(boxes), len(frames))
		}
		for i, b := range boxes {
			if b != nil && len(b) != 9 {
				return nil, cerrf("NewMemTraj", "box %d has %d elements, want 9", i, len(b))
			}
		}
	}
	return &MemTraj{frames: frames, boxes: boxes, dt: dt, natoms: natoms}, nil
}

func (M *MemTraj) Readable() bool {
	return M.frames != nil
}

//Next copies the current frame into output (or discards it if output is
//nil) and advances the trajectory. If a box buffer is given, it gets
//the frame's box, or zeroes if the trajectory carries none.
func (M *MemTraj) Next(output *v3.Matrix, box ...[]float64) error {
	if M.curr >= len(M.frames) {
		return newlastFrameError("", "mem")
	}
	if output != nil {
		if output.NVecs() != M.natoms {
			return cerrf("MemTraj.Next", "buffer for %d atoms given to a %d-atom trajectory", output.NVecs(), M.natoms)
		}
		output.Copy(M.frames[M.curr])
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		var b []float64
		if M.boxes != nil {
			b = M.boxes[M.curr]
		}
		for i := 0; i < 9; i++ {
			if b != nil {
				box[0][i] = b[i]
			} else {
				box[0][i] = 0
			}
		}
	}
	M.curr++
	return nil
}

func (M *MemTraj) Len() int {
	return M.natoms
}

func (M *MemTraj) Frames() int {
	return len(M.frames)
}

func (M *MemTraj) TimeStep() float64 {
	return M.dt
}

func (M *MemTraj) Seek(i int) error {
	if i < 0 || i >= len(M.frames) {
		return cerrf("MemTraj.Seek", "frame %d out of range for a %d-frame trajectory", i, len(M.frames))
	}
	M.curr = i
	return nil
}

//lastFrameError signals the normal end of a trajectory. It implements
//LastFrameError, so callers can filter it out in a type switch.
type lastFrameError struct {
	deco     []string
	fileName string
	format   string
}

func newlastFrameError(filename, format string) lastFrameError {
	return lastFrameError{fileName: filename, format: format}
}

//NormalLastFrameTermination does nothing, it's only there to separate
//this type from other TrajErrors.
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return E.format }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}
