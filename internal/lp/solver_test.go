package lp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeSolverScript writes a tiny shell script that echoes a fixed solution
// regardless of the model it is handed, standing in for a real MILP solver
// in tests (spec §6 only specifies the I/O contract, not a concrete solver).
func fakeSolverScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake solver script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake_solver.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSolveSucceedsOnFirstAttempt(t *testing.T) {
	net := twoShovelNetwork()
	script := fakeSolverScript(t, `
echo "C_0 0.8"
echo "S_0 0.5"
echo "S_1 0.3"
echo "Rt_0_0 0.5"
echo "Rt_0_1 0.5"
echo "Rt_1_0 0.3"
echo "Rt_1_1 0.3"
echo "T 8"
`)
	sol, err := Solve(context.Background(), net, VariantBase, Config{Command: []string{script}})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if sol.RouteFlows[0][0] != 0.5 {
		t.Fatalf("route 0 loaded flow = %.3f, want 0.5", sol.RouteFlows[0][0])
	}
}

func TestSolveRetriesThenFails(t *testing.T) {
	net := twoShovelNetwork()
	script := fakeSolverScript(t, `exit 1`)
	_, err := Solve(context.Background(), net, VariantBase, Config{Command: []string{script}, MaxRetries: 2, DumpDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected Solve to fail")
	}
	var solveErr *SolveError
	if !errors.As(err, &solveErr) {
		t.Fatalf("expected *SolveError, got %T: %v", err, err)
	}
	if solveErr.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", solveErr.Attempts)
	}
	if _, statErr := os.Stat(solveErr.DumpPath); statErr != nil {
		t.Fatalf("expected model dump at %s: %v", solveErr.DumpPath, statErr)
	}
}

