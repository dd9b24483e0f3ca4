// Package monitoring routes unexpected pipeline errors to an error tracker.
// The package level monitor is a no-op until Init is called.
package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors and panics.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the package level monitor. A nil monitor restores the no-op.
func Init(m Monitor) {
	mu.Lock()
	defer mu.Unlock()
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records err with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// CaptureVehicle records err raised by module while handling one vehicle.
func CaptureVehicle(module, vehicleID string, err error) {
	CaptureException(err, map[string]string{"module": module, "vehicle_id": vehicleID})
}

// Recover reports a panic and panics again. It must be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		m := get()
		m.CapturePanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush waits for buffered events.
func Flush(d time.Duration) { get().Flush(d) }
