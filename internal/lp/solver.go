package lp

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"dispatchsim/internal/network"
	"dispatchsim/internal/telemetry"
)

// SolveError reports that the external solver could not produce an optimal
// solution after exhausting its retry budget (spec §7 LP-solver error).
type SolveError struct {
	Attempts  int
	DumpPath  string
	LastError error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("lp: solver failed after %d attempts, model dumped to %s: %v", e.Attempts, e.DumpPath, e.LastError)
}

func (e *SolveError) Unwrap() error { return e.LastError }

// Config configures the external solver invocation. Command is run once per
// attempt with the model file path appended as its final argument and must
// write one "<varName> <value>" pair per line to stdout on success.
type Config struct {
	Command    []string
	MaxRetries int // spec §4.6 "small constant, e.g. 1000"
	DumpDir    string
	Logger     *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1000
	}
	if len(c.Command) == 0 {
		c.Command = []string{"lp_solve"}
	}
	c.Logger = telemetry.Logger(c.Logger)
	return c
}

// Solution is the decoded result of a successful solve: the raw variable
// assignment, and the [numRoutes x 2] flow matrix DISPATCH consumes.
type Solution struct {
	Values     map[string]float64
	RouteFlows [][2]float64
}

// Solve builds the model for net under variant, writes it to a temp file,
// invokes the configured external solver with retry, and decodes the
// resulting route flow matrix. On persistent failure it dumps the model to
// "<name>.lp" in cfg.DumpDir and returns a *SolveError.
func Solve(ctx context.Context, net *network.Network, variant Variant, cfg Config) (*Solution, error) {
	cfg = cfg.withDefaults()
	m := Build(net, variant)

	start := time.Now()
	defer func() { telemetry.LPSolveDuration.Observe(time.Since(start).Seconds()) }()

	modelPath, cleanup, err := writeTempModel(m)
	if err != nil {
		return nil, fmt.Errorf("lp: writing model: %w", err)
	}
	defer cleanup()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		values, err := runSolver(ctx, cfg, modelPath)
		if err == nil {
			cfg.Logger.Debug("lp solve succeeded", "attempt", attempt, "variant", variant)
			return decode(net, m, values), nil
		}
		lastErr = err
		cfg.Logger.Warn("lp solve attempt failed", "attempt", attempt, "error", err)
	}

	telemetry.LPSolveFailuresTotal.Inc()
	dumpPath, dumpErr := persistDump(m, cfg.DumpDir)
	if dumpErr != nil {
		cfg.Logger.Error("failed to persist LP model after solve failure", "error", dumpErr)
	}
	return nil, &SolveError{Attempts: cfg.MaxRetries, DumpPath: dumpPath, LastError: lastErr}
}

func writeTempModel(m *Model) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "dispatchsim-*.lp")
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	if err := Write(f, m); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func runSolver(ctx context.Context, cfg Config, modelPath string) (map[string]float64, error) {
	args := append(append([]string{}, cfg.Command[1:]...), modelPath)
	cmd := exec.CommandContext(ctx, cfg.Command[0], args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("solver invocation: %w", err)
	}
	return parseSolution(out)
}

// parseSolution reads "<varName> <value>" pairs, one per line, blank lines
// and lines beginning with '#' ignored. This is the solver output contract
// named in spec §6; no further interpretation of solver-specific status
// codes is attempted here beyond a nonzero process exit being a failure.
func parseSolution(out []byte) (map[string]float64, error) {
	values := map[string]float64{}
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("lp: malformed solution line %q", line)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("lp: malformed solution value %q: %w", fields[1], err)
		}
		values[fields[0]] = v
	}
	return values, sc.Err()
}

func decode(net *network.Network, m *Model, values map[string]float64) *Solution {
	sol := &Solution{Values: values, RouteFlows: make([][2]float64, len(net.Routes))}
	for _, rt := range net.Routes {
		sol.RouteFlows[rt.Index][0] = values[routeFlowVar(rt.Index, 0)]
		sol.RouteFlows[rt.Index][1] = values[routeFlowVar(rt.Index, 1)]
	}
	return sol
}

func persistDump(m *Model, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := fmt.Sprintf("%s/%s.lp", dir, m.Name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Write(f, m); err != nil {
		return "", err
	}
	return path, nil
}
