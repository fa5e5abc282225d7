package restart

import (
	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
)

// Checkpoint is a named, reusable pause point: a kernel's snapshot plus the
// network and sampler needed to rebuild a kernel from it. Dispatchers take a
// Checkpoint once per decision and fork it once per candidate they want to
// compare (§4.5, §4.7, §4.8).
type Checkpoint struct {
	Net      *network.Network
	Sampler  distribution.Sampler
	Snapshot simkernel.Snapshot
}

// Capture pauses k (which must be at a quiescent point, i.e. just after a
// call to Simulate returns) and returns a Checkpoint that can be forked any
// number of times without perturbing k itself.
func Capture(k *simkernel.Kernel) Checkpoint {
	return Checkpoint{Net: k.Net, Sampler: k.Sampler, Snapshot: k.Snapshot()}
}

// Ready rebuilds a live kernel from a checkpoint under routing, ready to
// keep simulating from exactly where Capture found it. Every in-flight task
// resumes with a freshly sampled remaining duration scaled by the task's
// recorded progress fraction, per spec §4.5 — Ready never replays the
// original random draw.
func Ready(cp Checkpoint, routing simkernel.Routing) *simkernel.Kernel {
	k := simkernel.NewKernel(cp.Net, cp.Sampler, routing, nil)
	k.Restore(cp.Snapshot)
	return k
}

// ReReady is Ready with an independent sampler substituted in, so a
// dispatcher can run many forward forks of the same checkpoint under
// different routing candidates with decorrelated randomness between forks
// (spec §4.5, §4.7's "forward simulation" estimator).
func ReReady(cp Checkpoint, sampler distribution.Sampler, routing simkernel.Routing) *simkernel.Kernel {
	forked := cp
	forked.Sampler = sampler
	return Ready(forked, routing)
}
