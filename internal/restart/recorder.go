// Package restart implements the state-restartable simulator described in
// spec §4.5: a way to pause a running simkernel.Kernel, hand its snapshot to
// a dispatcher for forward evaluation, and resume the live kernel
// afterwards without having spent any of the live kernel's random draws on
// the evaluation itself.
package restart

import "dispatchsim/internal/simkernel"

// RecordedTransition is one logged truck state change, timestamped against
// the simulation clock.
type RecordedTransition struct {
	Time       float64
	Truck      int
	From, To   simkernel.State
}

// RecordedLight is one logged traffic light flip.
type RecordedLight struct {
	Time  float64
	Road  int
	State simkernel.LightState
}

// Recorder wires into a Kernel's Observer and LightObserver to build an
// append-only trail of every truck transition and traffic-light change, for
// inspecting a run after the fact (the package tests use it this way).
type Recorder struct {
	Events []RecordedTransition
	Lights []RecordedLight

	now func() float64
}

// NewRecorder returns a Recorder that timestamps using k.Now.
func NewRecorder(k *simkernel.Kernel) *Recorder {
	return &Recorder{now: k.Now}
}

// Attach installs this recorder as k's Observer and LightObserver,
// chaining to any observers already registered rather than replacing them.
func (r *Recorder) Attach(k *simkernel.Kernel) {
	prevObserver := k.Observer
	k.Observer = func(sc simkernel.StateChange) {
		r.recordEvent(sc)
		if prevObserver != nil {
			prevObserver(sc)
		}
	}
	prevLight := k.LightObserver
	k.LightObserver = func(road int, state simkernel.LightState) {
		r.recordLight(road, state)
		if prevLight != nil {
			prevLight(road, state)
		}
	}
}

func (r *Recorder) recordEvent(sc simkernel.StateChange) {
	r.Events = append(r.Events, RecordedTransition{
		Time:  sc.Transition.Time,
		Truck: sc.Transition.Truck,
		From:  sc.Transition.From,
		To:    sc.Transition.To,
	})
}

func (r *Recorder) recordLight(road int, state simkernel.LightState) {
	t := 0.0
	if r.now != nil {
		t = r.now()
	}
	r.Lights = append(r.Lights, RecordedLight{Time: t, Road: road, State: state})
}

// CountTo returns how many recorded transitions land in state s.
func (r *Recorder) CountTo(s simkernel.State) int {
	n := 0
	for _, e := range r.Events {
		if e.To == s {
			n++
		}
	}
	return n
}
