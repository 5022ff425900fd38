//Package hbplot draws the hydrogen bond decay curves produced by the
//rest of the library.
package hbplot

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	hbond "github.com/rmera/gohbond"
)

//Decay saves a plot of the decay in sol to file, whose extension picks
//the format (png, svg, pdf, among the ones gonum/plot saves to). The
//data go in as a scatter; the fitted curve, when the solution carries
//one, as a line through the same time grid.
func Decay(sol *hbond.Solution, title, file string) error {
	if sol == nil || len(sol.Results) == 0 {
		return fmt.Errorf("goHBond/hbplot: there is no decay to plot")
	}
	if len(sol.Time) != len(sol.Results) {
		return fmt.Errorf("goHBond/hbplot: %d times for %d decay values", len(sol.Time), len(sol.Results))
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = "t (ps)"
	p.Y.Label.Text = fmt.Sprintf("C(t), %v", sol.Mode)
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, len(sol.Results))
	for i, v := range sol.Results {
		pts[i] = plotter.XY{X: sol.Time[i], Y: v}
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = color.RGBA{R: 40, G: 80, B: 200, A: 255}
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)
	p.Legend.Add("data", s)
	if len(sol.Estimate) == len(sol.Time) {
		fpts := make(plotter.XYs, len(sol.Estimate))
		for i, v := range sol.Estimate {
			fpts[i] = plotter.XY{X: sol.Time[i], Y: v}
		}
		l, err := plotter.NewLine(fpts)
		if err != nil {
			return err
		}
		l.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("fit, tau = %.3g ps", sol.Tau), l)
	}
	p.Legend.Top = true
	if err := p.Save(5*vg.Inch, 4*vg.Inch, file); err != nil {
		return fmt.Errorf("goHBond/hbplot: %v", err)
	}
	return nil
}

//Series saves a plot of a per-frame observable, the bond count over
//the trajectory being the typical customer.
func Series(time, values []float64, ylabel, title, file string) error {
	if len(values) == 0 {
		return fmt.Errorf("goHBond/hbplot: there is no series to plot")
	}
	if time != nil && len(time) != len(values) {
		return fmt.Errorf("goHBond/hbplot: %d times for %d values", len(time), len(values))
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	if time != nil {
		p.X.Label.Text = "t (ps)"
	} else {
		p.X.Label.Text = "frame"
	}
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		x := float64(i)
		if time != nil {
			x = time[i]
		}
		pts[i] = plotter.XY{X: x, Y: v}
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.Color = color.RGBA{R: 40, G: 120, B: 60, A: 255}
	l.Width = vg.Points(1)
	p.Add(l)
	if err := p.Save(6*vg.Inch, 3*vg.Inch, file); err != nil {
		return fmt.Errorf("goHBond/hbplot: %v", err)
	}
	return nil
}
