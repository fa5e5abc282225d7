// Package api exposes dispatch-policy evaluation runs over HTTP and
// WebSocket, grounded on backend/server's Manager/Server split: a Manager
// owns run lifecycle and broadcast state, a Server exposes it over
// net/http (server.go). Where the teacher's Manager runs one goroutine per
// simulated truck on a shared ticker, ours runs one goroutine per
// submitted run, since the unit of concurrency in this domain is an
// independent shift simulation or GA search, not an individual truck.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"dispatchsim/internal/dispatch"
	"dispatchsim/internal/distribution"
	"dispatchsim/internal/ga"
	"dispatchsim/internal/lp"
	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
	"dispatchsim/internal/telemetry"
)

// Status is a run's lifecycle stage.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Result is a completed run's summary: mean and standard deviation of
// truckloads-per-shift over its samples, matching the CLI's
// `"<name> : mean-<avg> sd-<sd>"` report (spec §6). For a "ga" run,
// Samples holds the best-ever fitness per generation, Mean is the last of
// those values, and SD is 0.
type Result struct {
	Mean    float64   `json:"mean"`
	SD      float64   `json:"sd"`
	Samples []float64 `json:"samples"`
}

// Request describes a run submission: a network file (spec §6 format),
// which policy to evaluate, and how many independent shifts to sample.
type Request struct {
	Network     string   `json:"network"`
	Policy      string   `json:"policy"`
	NumSamples  int      `json:"numSamples"`
	ShiftLength float64  `json:"shiftLength"`
	Solver      []string `json:"solver,omitempty"`
}

// Run is one submitted policy evaluation's live state.
type Run struct {
	ID     string
	Policy string
	Status Status
	Err    string
	Result *Result

	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
	cancel      context.CancelFunc
}

func newRun(id, policy string) *Run {
	return &Run{ID: id, Policy: policy, Status: StatusPending, subscribers: map[chan []byte]struct{}{}}
}

// Subscribe registers a channel to receive this run's streamed JSON
// frames. The caller must Unsubscribe when done.
func (r *Run) Subscribe() chan []byte {
	ch := make(chan []byte, 32)
	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()
	return ch
}

func (r *Run) Unsubscribe(ch chan []byte) {
	r.mu.Lock()
	delete(r.subscribers, ch)
	r.mu.Unlock()
	close(ch)
}

// broadcast sends frame to every subscriber without blocking; a slow
// subscriber drops frames rather than stalling the run, the same
// lossy-streaming tradeoff the teacher's websocket ticker loop makes by
// only ever sending the latest snapshot.
func (r *Run) broadcast(frame []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
}

func (r *Run) setStatus(s Status) {
	r.mu.Lock()
	r.Status = s
	r.mu.Unlock()
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	r.Status = StatusFailed
	r.Err = err.Error()
	r.mu.Unlock()
}

func (r *Run) finish(res *Result) {
	r.mu.Lock()
	r.Status = StatusDone
	r.Result = res
	r.mu.Unlock()
}

// Snapshot is a JSON-safe copy of a Run's current state, for the GET
// /api/runs/{id} response.
type Snapshot struct {
	ID     string  `json:"id"`
	Policy string  `json:"policy"`
	Status Status  `json:"status"`
	Err    string  `json:"error,omitempty"`
	Result *Result `json:"result,omitempty"`
}

func (r *Run) snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{ID: r.ID, Policy: r.Policy, Status: r.Status, Err: r.Err, Result: r.Result}
}

// Manager owns every run's lifecycle: submission, background execution,
// and lookup.
type Manager struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{runs: map[string]*Run{}, logger: telemetry.Logger(logger)}
}

// Submit parses req.Network, validates the policy, registers a new Run,
// and starts it in a background goroutine.
func (m *Manager) Submit(ctx context.Context, req Request) (*Run, error) {
	net, err := network.Parse(stringsReader(req.Network))
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	if req.NumSamples <= 0 {
		req.NumSamples = 1
	}
	if req.ShiftLength <= 0 {
		req.ShiftLength = 480
	}

	id := telemetry.NewRunID()
	run := newRun(id, req.Policy)
	runCtx, cancel := context.WithCancel(ctx)
	run.cancel = cancel

	m.mu.Lock()
	m.runs[id] = run
	m.mu.Unlock()

	go m.execute(runCtx, run, net, req)
	return run, nil
}

func (m *Manager) Get(id string) (*Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok
}

func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.snapshot())
	}
	return out
}

func (m *Manager) execute(ctx context.Context, run *Run, net *network.Network, req Request) {
	run.setStatus(StatusRunning)
	logger := m.logger.With("run_id", run.ID, "policy", req.Policy)

	if req.Policy == "ga" {
		m.runGA(ctx, run, net, req, logger)
		return
	}

	routing, setKernel, err := m.buildRouting(ctx, net, req, logger)
	if err != nil {
		logger.Error("run setup failed", "err", err)
		run.fail(err)
		return
	}

	samples := make([]float64, req.NumSamples)
	for i := 0; i < req.NumSamples; i++ {
		select {
		case <-ctx.Done():
			run.fail(ctx.Err())
			return
		default:
		}
		sampler := distribution.SymmetricUniform{}
		k := simkernel.NewKernel(net, sampler, routing, nil)
		setKernel(k)
		k.Observer = func(sc simkernel.StateChange) {
			run.broadcast(encodeStateChange(sc))
		}
		k.Start()
		k.Simulate(req.ShiftLength)
		samples[i] = float64(k.NumEmpties())
	}

	run.finish(summarize(samples))
}

type kernelSetter func(*simkernel.Kernel)

func (m *Manager) buildRouting(ctx context.Context, net *network.Network, req Request, logger *slog.Logger) (simkernel.Routing, kernelSetter, error) {
	switch req.Policy {
	case "mtct", "mtst", "mtwt", "mswt":
		h := map[string]heuristicName{"mtct": hMTCT, "mtst": hMTST, "mtwt": hMTWT, "mswt": hMSWT}[req.Policy]
		underlying := roundRobinRouting{net: net}
		g := dispatch.NewGreedy(net, underlying, h.toDispatch(), logger)
		return g, func(k *simkernel.Kernel) { g.SetKernel(k) }, nil
	case "dispatch":
		flows, err := solveFlows(ctx, net, req)
		if err != nil {
			return nil, nil, err
		}
		ctrl, err := dispatch.NewController(net, flows, logger)
		if err != nil {
			return nil, nil, err
		}
		return ctrl, func(k *simkernel.Kernel) { ctrl.SetKernel(k) }, nil
	default:
		return nil, nil, fmt.Errorf("api: unknown policy %q", req.Policy)
	}
}

func solveFlows(ctx context.Context, net *network.Network, req Request) ([][2]float64, error) {
	cfg := lp.Config{}
	if len(req.Solver) > 0 {
		cfg.Command = req.Solver
	}
	sol, err := lp.Solve(ctx, net, lp.VariantBase, cfg)
	if err != nil {
		return nil, err
	}
	return sol.RouteFlows, nil
}

func (m *Manager) runGA(ctx context.Context, run *Run, net *network.Network, req Request, logger *slog.Logger) {
	cfg := defaultGAConfig(net, req, logger)
	cfg.Progress = func(gen int, best float64) {
		run.broadcast(encodeGAProgress(gen, best))
	}
	res := ga.Run(cfg)
	if res.Best == nil {
		run.fail(fmt.Errorf("api: ga run produced no genome"))
		return
	}
	run.finish(&Result{Mean: res.BestPerGen[len(res.BestPerGen)-1], Samples: res.BestPerGen})
}

func summarize(samples []float64) *Result {
	var sum float64
	for _, v := range samples {
		sum += v
	}
	n := float64(len(samples))
	mean := sum / n
	var variance float64
	for _, v := range samples {
		d := v - mean
		variance += d * d
	}
	sd := 0.0
	if n > 1 {
		sd = math.Sqrt(variance / (n - 1))
	}
	return &Result{Mean: mean, SD: sd, Samples: samples}
}
