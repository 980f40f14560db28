// cmd/worker-manager/ops.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "cx-agent-builder/internal/common/errors"
)

const readinessTimeout = 2 * time.Second

// readinessChecks maps each backend that connected at startup to a check of
// its current state.
type readinessChecks map[string]func(ctx context.Context) error

type backendStatus struct {
	Ready     bool   `json:"ready"`
	ErrorCode string `json:"errorCode,omitempty"`
	Error     string `json:"error,omitempty"`
}

// run checks every backend concurrently. The result is false when any
// backend fails.
func (c readinessChecks) run(ctx context.Context) (map[string]backendStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		statuses = make(map[string]backendStatus, len(names))
		allReady = true
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string, check func(context.Context) error) {
			defer wg.Done()
			status := backendStatus{Ready: true}
			if err := check(ctx); err != nil {
				status = backendStatus{Error: err.Error()}
				if stdErr, ok := apperrors.AsStandardError(err); ok {
					status.ErrorCode = string(stdErr.Code)
					status.Error = stdErr.Details
				}
			}
			mu.Lock()
			statuses[name] = status
			if !status.Ready {
				allReady = false
			}
			mu.Unlock()
		}(name, c[name])
	}
	wg.Wait()
	return statuses, allReady
}

// opsMux serves liveness, readiness and Prometheus metrics.
func opsMux(checks readinessChecks) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		statuses, ok := checks.run(r.Context())
		code, status := http.StatusOK, "ready"
		if !ok {
			code, status = http.StatusServiceUnavailable, "not_ready"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   status,
			"backends": statuses,
			"time":     time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
