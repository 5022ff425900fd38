package hbond

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlanWindows(t *testing.T) {
	cases := []struct {
		name       string
		frames     int
		dt         float64
		sampleTime float64
		nruns      int
		nsamples   int
		want       *windows
		warns      int
	}{
		{
			name:   "comfortable trajectory",
			frames: 100, dt: 1.0, sampleTime: 10, nruns: 5, nsamples: 10,
			want: &windows{starts: []int{0, 20, 40, 60, 80}, stops: []int{10, 30, 50, 70, 90}, skip: 1, samples: 10},
		},
		{
			name:   "stride over the window",
			frames: 100, dt: 1.0, sampleTime: 30, nruns: 2, nsamples: 10,
			want: &windows{starts: []int{0, 50}, stops: []int{30, 80}, skip: 3, samples: 10},
		},
		{
			name:   "stride that doesn't divide the window",
			frames: 100, dt: 1.0, sampleTime: 10, nruns: 1, nsamples: 3,
			want: &windows{starts: []int{0}, stops: []int{10}, skip: 3, samples: 4},
		},
		{
			name:   "sample time over the trajectory",
			frames: 10, dt: 1.0, sampleTime: 50, nruns: 2, nsamples: 10,
			want:  &windows{starts: []int{0, 5}, stops: []int{10, 10}, skip: 5, samples: 10},
			warns: 1,
		},
		{
			name:   "more runs than frames",
			frames: 3, dt: 1.0, sampleTime: 2, nruns: 10, nsamples: 2,
			want:  &windows{starts: []int{0, 1, 2}, stops: []int{2, 3, 3}, skip: 1, samples: 2},
			warns: 1,
		},
		{
			name:   "more samples than frames in the window",
			frames: 100, dt: 1.0, sampleTime: 5, nruns: 1, nsamples: 50,
			want:  &windows{starts: []int{0}, stops: []int{5}, skip: 1, samples: 5},
			warns: 1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, warns, err := planWindows(c.frames, c.dt, c.sampleTime, c.nruns, c.nsamples)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.want, got, cmp.AllowUnexported(windows{})); diff != "" {
				t.Errorf("unexpected plan (-want +got):\n%s", diff)
			}
			if len(warns) != c.warns {
				t.Errorf("got %d warnings (%v), want %d", len(warns), warns, c.warns)
			}
		})
	}
}

func TestPlanWindowsTooShort(t *testing.T) {
	_, _, err := planWindows(100, 2.0, 1.0, 1, 10)
	if err == nil {
		t.Fatal("a sample time under one time step produced a plan")
	}
	if !strings.Contains(err.Error(), "shorter than") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWindowSteps(t *testing.T) {
	w := &windows{starts: []int{0, 5}, stops: []int{10, 10}, skip: 3}
	if s := w.steps(0); s != 4 { //frames 0, 3, 6, 9
		t.Errorf("got %d steps for a 10-frame window with skip 3, want 4", s)
	}
	if s := w.steps(1); s != 2 { //frames 5, 8
		t.Errorf("got %d steps for a truncated 5-frame window with skip 3, want 2", s)
	}
}
