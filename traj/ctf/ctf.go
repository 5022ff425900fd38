package ctf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	hbond "github.com/rmera/gohbond"
	v3 "github.com/rmera/gohbond/v3"
)

const lzwLitwidth int = 8

//Write!

//CtfW writes a ctf trajectory.
type CtfW struct {
	f        *os.File
	h        io.WriteCloser
	w        *bufio.Writer
	natoms   int
	filename string
	writable bool
}

//NewWriter opens name for writing a ctf trajectory of natoms atoms
//per frame. dt, if positive, goes into the header so readers can plan
//time correlations from the file alone. The compression is picked from
//the last letter of the name, as in the other formats of the family:
//'z' gzip, 'l' lzw, 'r' flate, anything else (the plain .ctf included)
//zstd. An optional level is honored by the gzip and flate variants.
func NewWriter(name string, natoms int, dt float64, compressionLevel ...int) (*CtfW, error) {
	if natoms <= 0 {
		return nil, Error{"the number of atoms must be positive", name, []string{"NewWriter"}, true}
	}
	level := 9
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	C := new(CtfW)
	C.filename = name
	C.natoms = natoms
	var err error
	C.f, err = os.Create(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.Create", "NewWriter"}, true}
	}
	var AnyNewWriter func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	case 'l':
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'r':
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	default:
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		}
	}
	C.h, err = AnyNewWriter(C.f)
	if err != nil {
		C.f.Close()
		return nil, Error{"Can't set up compression: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	C.w = bufio.NewWriter(C.h)
	if dt > 0 {
		fmt.Fprintf(C.w, "dt=%s\n", strconv.FormatFloat(dt, 'g', -1, 64))
	}
	fmt.Fprintf(C.w, "** %d\n", C.natoms)
	C.writable = true
	return C, nil
}

func (C *CtfW) Len() int {
	return C.natoms
}

//WNext writes the next frame: a line per atom with its coordinates, in
//full precision, closed by the frame terminator, which carries the box
//vectors if a box is given.
func (C *CtfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !C.writable {
		return Error{TrajUnIniWrite, C.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, C.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != C.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, C.natoms), C.filename, []string{"WNext"}, true}
	}
	ff := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
	for i := 0; i < v; i++ {
		fmt.Fprintf(C.w, "%s %s %s\n", ff(coord.At(i, 0)), ff(coord.At(i, 1)), ff(coord.At(i, 2)))
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		fmt.Fprintf(C.w, "* %s %s %s %s %s %s %s %s %s\n", ff(b[0]), ff(b[1]), ff(b[2]), ff(b[3]), ff(b[4]), ff(b[5]), ff(b[6]), ff(b[7]), ff(b[8]))
	} else {
		C.w.WriteString("*\n")
	}
	return nil
}

//Close flushes and closes the trajectory. The object can't be written
//to after this call.
func (C *CtfW) Close() {
	if C == nil || !C.writable {
		return
	}
	C.w.Flush()
	C.h.Close()
	C.f.Close()
	C.writable = false
}

//Read!

//CtfR reads a ctf trajectory. The whole file is parsed and kept in
//memory on opening, which makes Next cheap and Seek free; ctf is meant
//for modest analysis trajectories, not for competing with binary
//formats on bulk.
type CtfR struct {
	frames   []*v3.Matrix
	boxes    [][]float64 //nil entries for boxless frames
	natoms   int
	dt       float64
	filename string
	curr     int
	readable bool
}

//New opens and fully reads the ctf trajectory in name, picking the
//compression from the name's last letter the way NewWriter does. The
//underlying file is closed before returning.
func New(name string) (*CtfR, error) {
	C := new(CtfR)
	C.filename = name
	C.natoms = -1 //just so we know if things don't work
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.Open", "New"}, true}
	}
	defer f.Close()
	var AnyNewReader func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'z':
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'l':
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'r':
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	default:
		AnyNewReader = func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return zstdql{r.Close, r}, nil
		}
	}
	h, err := AnyNewReader(bufio.NewReader(f))
	if err != nil {
		return nil, Error{"Can't set up decompression: " + err.Error(), name, []string{"New"}, true}
	}
	defer h.Close()
	if err := C.load(bufio.NewScanner(h)); err != nil {
		return nil, errDecorate(err, "New")
	}
	C.readable = true
	return C, nil
}

//load parses the header and then every frame into memory.
func (C *CtfR) load(scan *bufio.Scanner) error {
	var frame *v3.Matrix
	atom := 0
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		if C.natoms < 0 { //still in the header
			if strings.HasPrefix(line, "**") {
				n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "**")))
				if err != nil || n <= 0 {
					return Error{fmt.Sprintf("Can't read the atom number from %q", line), C.filename, []string{"load"}, true}
				}
				C.natoms = n
				continue
			}
			kv := strings.SplitN(line, "=", 2)
			if len(kv) != 2 {
				return Error{fmt.Sprintf("Malformed header line %q", line), C.filename, []string{"load"}, true}
			}
			if kv[0] == "dt" {
				dt, err := strconv.ParseFloat(kv[1], 64)
				if err != nil {
					return Error{fmt.Sprintf("Malformed dt in header: %q", kv[1]), C.filename, []string{"load"}, true}
				}
				C.dt = dt
			}
			//unknown keys are fine, we just don't use them
			continue
		}
		if strings.HasPrefix(line, "*") { //the frame terminator
			if atom != C.natoms {
				return Error{fmt.Sprintf("Frame %d ends after %d of %d atoms", len(C.frames), atom, C.natoms), C.filename, []string{"load"}, true}
			}
			box, err := C.boxLine(line)
			if err != nil {
				return err
			}
			C.frames = append(C.frames, frame)
			C.boxes = append(C.boxes, box)
			frame = nil
			atom = 0
			continue
		}
		if frame == nil {
			frame = v3.Zeros(C.natoms)
		}
		if atom >= C.natoms {
			return Error{fmt.Sprintf("Frame %d has more than %d atoms", len(C.frames), C.natoms), C.filename, []string{"load"}, true}
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return Error{fmt.Sprintf("Ill formatted coordinates line: %q", line), C.filename, []string{"load"}, true}
		}
		for k, v := range fields {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Error{fmt.Sprintf("Ill formatted coordinate %q in line %q", v, line), C.filename, []string{"load"}, true}
			}
			frame.Set(atom, k, f)
		}
		atom++
	}
	if err := scan.Err(); err != nil {
		return Error{err.Error(), C.filename, []string{"load"}, true}
	}
	if C.natoms < 0 {
		return Error{"No header found", C.filename, []string{"load"}, true}
	}
	if atom != 0 {
		return Error{"The file ends mid-frame", C.filename, []string{"load"}, true}
	}
	if len(C.frames) == 0 {
		return Error{"No frames in the trajectory", C.filename, []string{"load"}, true}
	}
	return nil
}

//boxLine parses a frame terminator: a bare "*" means no box, otherwise
//the 9 components of the box vectors follow.
func (C *CtfR) boxLine(line string) ([]float64, error) {
	rest := strings.Fields(strings.TrimPrefix(line, "*"))
	if len(rest) == 0 {
		return nil, nil
	}
	if len(rest) != 9 {
		return nil, Error{fmt.Sprintf("A box needs 9 numbers, got %d", len(rest)), C.filename, []string{"boxLine"}, true}
	}
	box := make([]float64, 9)
	for i, v := range rest {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, Error{fmt.Sprintf("Ill formatted box component %q", v), C.filename, []string{"boxLine"}, true}
		}
		box[i] = f
	}
	return box, nil
}

//Readable returns true if it is possible to call Next on the object.
func (C *CtfR) Readable() bool {
	return C.readable
}

//Next copies the current frame into output, or discards it if output
//is nil, and advances the trajectory. If a box buffer is given, it
//gets the frame's box, or zeroes if the frame carries none.
func (C *CtfR) Next(output *v3.Matrix, box ...[]float64) error {
	if !C.readable {
		return Error{TrajUnIniRead, C.filename, []string{"Next"}, true}
	}
	if C.curr >= len(C.frames) {
		return newlastFrameError(C.filename, "Next")
	}
	if output != nil {
		if output.NVecs() != C.natoms {
			return Error{NotEnoughSpace, C.filename, []string{"Next"}, true}
		}
		output.Copy(C.frames[C.curr])
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := C.boxes[C.curr]
		for i := 0; i < 9; i++ {
			if b != nil {
				box[0][i] = b[i]
			} else {
				box[0][i] = 0
			}
		}
	}
	C.curr++
	return nil
}

func (C *CtfR) Len() int {
	return C.natoms
}

//Frames returns the number of frames in the trajectory.
func (C *CtfR) Frames() int {
	return len(C.frames)
}

//TimeStep returns the time between frames, in ps, as declared in the
//file's header, or 0 if the header says nothing about it.
func (C *CtfR) TimeStep() float64 {
	return C.dt
}

//Seek positions the trajectory so the following call to Next reads the
//ith frame, counting from 0.
func (C *CtfR) Seek(i int) error {
	if !C.readable {
		return Error{TrajUnIniRead, C.filename, []string{"Seek"}, true}
	}
	if i < 0 || i >= len(C.frames) {
		return Error{fmt.Sprintf("frame %d out of range: the trajectory has %d frames", i, len(C.frames)), C.filename, []string{"Seek"}, true}
	}
	C.curr = i
	return nil
}

//Close drops the buffered trajectory. The object can't be read after
//this call.
func (C *CtfR) Close() {
	if C == nil {
		return
	}
	C.frames = nil
	C.boxes = nil
	C.readable = false
}

//zstd.Decoder's Close returns nothing, so it misses io.ReadCloser by
//a signature.
type zstdql struct {
	closeql func()
	*zstd.Decoder
}

func (z zstdql) Close() error {
	z.closeql()
	return nil
}

//Errors

//errDecorate asserts that the error implements hbond.Error and
//decorates it with the caller's name before returning it. It panics
//on a non-hbond.Error error.
func errDecorate(err error, caller string) error {
	err2 := err.(hbond.Error)
	err2.Decorate(caller)
	return err2
}

//Error is the general structure for ctf trajectory errors. It fulfills
//hbond.Error and hbond.TrajError.
type Error struct {
	message  string
	filename string //the input file that has problems, or an empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("ctf file %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the receiver,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file associated to the error
func (err Error) Format() string { return "ctf" }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	NilCoordinates = "Given nil coordinates"
	NotEnoughSpace = "Not enough space in passed blocks"
)

//lastFrameError implements hbond.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//NormalLastFrameTermination does nothing
func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Format() string { return "ctf" }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}
