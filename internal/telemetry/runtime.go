package telemetry

import "runtime"

func goroutineCount() float64 {
	return float64(runtime.NumGoroutine())
}
