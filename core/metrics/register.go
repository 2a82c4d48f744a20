// Package metrics owns the Prometheus collectors shared by the bot runtime
// and the HTTP endpoint that exposes them.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu         sync.Mutex
	registered bool
	collectors []prometheus.Collector
)

// Register enqueues collectors; packages call it from init().
func Register(cs ...prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()
	if registered {
		prometheus.MustRegister(cs...)
		return
	}
	collectors = append(collectors, cs...)
}

// MustRegister registers all enqueued collectors with the default registry exactly once.
func MustRegister() {
	mu.Lock()
	defer mu.Unlock()
	if registered {
		return
	}
	registered = true
	if len(collectors) > 0 {
		prometheus.MustRegister(collectors...)
	}
}

// Norm lowercases and trims a label value.
func Norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
