package restart

import "dispatchsim/internal/simkernel"

// VerifyReplay is a test helper: it builds two kernels from newKernel,
// starts both, runs the first straight through to `until`, and runs the
// second only to `pause`, captures it, resumes it with Ready, and runs the
// resumed fork on to `until`. It returns the EMPTYING-exit count seen by
// each path. They are not expected to match exactly — Ready redraws
// randomness for every in-flight task at the pause point — but should land
// within the same order of magnitude for a test to treat the restart path
// as sound.
func VerifyReplay(newKernel func() *simkernel.Kernel, routing simkernel.Routing, pause, until float64) (liveEmpties, resumedEmpties int) {
	live := newKernel()
	live.Start()
	live.Simulate(until)
	liveEmpties = live.NumEmpties()

	paused := newKernel()
	paused.Start()
	paused.Simulate(pause)

	cp := Capture(paused)
	resumed := Ready(cp, routing)
	resumed.Simulate(until)
	resumedEmpties = resumed.NumEmpties()

	return liveEmpties, resumedEmpties
}
