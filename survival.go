package hbond

//population is the set of hydrogen bond candidates tracked through one
//window. h and a are parallel slices holding, for each candidate, its
//position in the hydrogen (==donor) and acceptor selections. off, used
//only when a forgiveness time is active, holds the time each candidate
//has currently spent broken. The three slices always shrink in
//lockstep, so len(h) == len(a) (== len(off)) at every point.
type population struct {
	h, a []int
	off  []float64
}

func (p *population) len() int {
	return len(p.h)
}

//reset empties p, keeping the storage.
func (p *population) reset() {
	p.h = p.h[:0]
	p.a = p.a[:0]
	p.off = nil
}

func (p *population) add(h, a int) {
	p.h = append(p.h, h)
	p.a = append(p.a, a)
}

//startClocks attaches a zeroed forgiveness clock to every candidate.
func (p *population) startClocks() {
	p.off = make([]float64, len(p.h))
}

//compact removes, in place and in lockstep, every candidate whose entry
//in alive is false.
func (p *population) compact(alive []bool) {
	n := 0
	for i := range p.h {
		if !alive[i] {
			continue
		}
		p.h[n] = p.h[i]
		p.a[n] = p.a[i]
		if p.off != nil {
			p.off[n] = p.off[i]
		}
		n++
	}
	p.h = p.h[:n]
	p.a = p.a[:n]
	if p.off != nil {
		p.off = p.off[:n]
	}
}

//tick advances the forgiveness clocks by one sample of elapsed ps: a
//surviving candidate gets its clock reset, a broken one accumulates
//time, and whoever reaches cut is dropped for good.
func (p *population) tick(alive []bool, elapsed, cut float64) {
	n := 0
	for i := range p.h {
		if alive[i] {
			p.off[i] = 0
		} else {
			p.off[i] += elapsed
		}
		if p.off[i] >= cut {
			continue
		}
		p.h[n] = p.h[i]
		p.a[n] = p.a[i]
		p.off[n] = p.off[i]
		n++
	}
	p.h = p.h[:n]
	p.a = p.a[:n]
	p.off = p.off[:n]
}
